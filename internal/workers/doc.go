/*
Package workers sizes and runs the bounded worker pools used by the
background jobs.

Pool sizes derive from GOMAXPROCS rather than runtime.NumCPU, so a container
limited to two CPUs on a large host still gets a small pool:

	n := workers.ForIO(8)     // 2 per CPU, at most 8
	n := workers.ForMixed(8)  // 1.5 per CPU, at most 8

THUMBNAIL_WORKERS overrides the computed size (still capped by the limit).

Each fans a slice out over such a pool:

	err := workers.Each(ctx, workers.ForIO(8), pictures, run.Cancel.Cancelled,
		func(ctx context.Context, p database.Picture) { ... })

It stops handing out items as soon as the stop function reports true or the
context ends. Items already handed out run to completion.
*/
package workers
