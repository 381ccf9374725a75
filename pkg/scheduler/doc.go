// Package scheduler implements a typed worker pool returning futures.
//
// A Scheduler owns a fixed number of workers. AddWork queues a function and
// returns a Future immediately; the function runs as soon as a worker is free.
//
//	        AddWork(fn)
//	             │
//	             ▼
//	      ┌─────────────┐  dispatch()  ┌──────────┐
//	      │ work queue  │ ───────────► │ worker N │ ──► Future.C()
//	      └─────────────┘              └──────────┘
//	             ▲                          │
//	             └──────── done ────────────┘
//
// The event loop handles three events: new work (queue then dispatch), a worker
// finishing (return it to the pool then dispatch), and Close.
//
// # Futures
//
// Every future receives exactly one Result. Stop cancels the context passed to
// that work function only; Close cancels the context of all outstanding work,
// waits for running workers and is safe to call more than once.
//
// A panic inside a work function is recovered and delivered as an error result.
// The worker goes back to the pool.
//
// # Usage
//
// The message bus submits one work item per inbound change message:
//
//	sched := scheduler.NewScheduler[*message.Message](cfg.Workers)
//	defer sched.Close()
//
//	future := sched.AddWork(func(ctx context.Context) (*message.Message, error) {
//	    return handler.Handle(ctx, msg)
//	})
//
//	select {
//	case r := <-future.C():
//	    if r.Err != nil {
//	        // reply with an error status
//	    }
//	case <-ctx.Done():
//	    future.Stop()
//	}
package scheduler
