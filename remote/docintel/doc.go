// Package docintel implements [longrun.Remote] collaborators for Azure AI
// Document Intelligence.
//
// Analyze, build-model and copy-model requests are all long-running on the
// service side: the initiating POST answers 202 Accepted with an
// Operation-Location header, and the operation resource at that URL reports
// notStarted, running, succeeded, failed or canceled. Each collaborator
// uses that URL as the operation id, so an operation started by one process
// can be resumed by another with [longrun.Poller.Resume].
//
//	client, err := docintel.New(endpoint, docintel.WithToken(key))
//	p, err := longrun.New(client.Analyze())
//	h, err := p.Start(ctx, docintel.AnalyzeRequest{ModelID: "prebuilt-receipt", Content: data})
//	out, err := p.Wait(ctx, h, nil)
//	result, err := p.Result(out.Handle)
package docintel
