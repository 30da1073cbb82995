package main

// Web downloads the website's text pages into data/htmls.
func Web() error {
	return run("web")
}

// Papers extracts the award's publications and downloads their PDFs into data/pdfs.
func Papers() error {
	return run("papers")
}

// Retry downloads only the papers listed in the failed manifest.
func Retry() error {
	return run("papers", "--retry-failed")
}

// Index builds the chunk index in rag/ from the downloaded sources.
func Index() error {
	return run("index")
}

// Chat starts an interactive session against the index.
func Chat() error {
	return run("chat")
}

// All runs every ingestion stage in order.
func All() error {
	for _, stage := range []func() error{Web, Papers, Index} {
		if err := stage(); err != nil {
			return err
		}
	}
	return nil
}
