// Package dispatch admits text-generation jobs into a bounded FIFO queue and
// serves them from a single consumer loop.
//
// The consumer paces outbound calls with an adaptive Backoff, rotates API
// credentials round-robin, classifies each upstream result into an Outcome
// and hands it to a delivery goroutine so slow sinks never stall dispatch.
//
//	d := dispatch.NewDispatcher(dispatch.Options{...})
//	go d.Run(ctx)
//	ticket, err := d.Enqueue("summarize", text, language.Und, sink)
package dispatch
