package scheduler_test

import (
	"context"
	"errors"
	"runtime"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-agent/pkg/scheduler"
)

var _ = Describe("Scheduler", func() {
	var s *scheduler.Scheduler[string]

	AfterEach(func() {
		if s != nil {
			s.Close()
		}
	})

	Describe("AddWork", func() {
		It("should add work and return a future", func() {
			s = scheduler.NewScheduler[string](1)

			future := s.AddWork(func(ctx context.Context) (string, error) {
				return "done", nil
			})
			Expect(future).NotTo(BeNil())

			var result scheduler.Result[string]
			Eventually(future.C(), 2*time.Second).Should(Receive(&result))
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Data).To(Equal("done"))
		})

		It("should deliver the work error through the future", func() {
			s = scheduler.NewScheduler[string](1)

			future := s.AddWork(func(ctx context.Context) (string, error) {
				return "", errors.New("store unavailable")
			})

			result := future.Wait(context.Background())
			Expect(result.Err).To(MatchError("store unavailable"))
		})

		It("should report a panicking work as an error", func() {
			s = scheduler.NewScheduler[string](1)

			future := s.AddWork(func(ctx context.Context) (string, error) {
				panic("boom")
			})

			result := future.Wait(context.Background())
			Expect(result.Err).To(MatchError(ContainSubstring("worker panicked: boom")))

			// the worker must be back in the pool
			next := s.AddWork(func(ctx context.Context) (string, error) {
				return "after panic", nil
			})
			Expect(next.Wait(context.Background()).Data).To(Equal("after panic"))
		})
	})

	Describe("Run work", func() {
		It("should execute multiple work items", func() {
			s = scheduler.NewScheduler[string](2)

			results := make(chan int, 3)
			for i := range 3 {
				idx := i
				s.AddWork(func(ctx context.Context) (string, error) {
					results <- idx
					return "", nil
				})
			}

			Eventually(func() int {
				return len(results)
			}, 2*time.Second, 100*time.Millisecond).Should(Equal(3))
		})
	})

	Describe("Cancel work", func() {
		It("should cancel work via future.Stop()", func() {
			s = scheduler.NewScheduler[string](1)

			cancelled := make(chan bool, 1)
			future := s.AddWork(func(ctx context.Context) (string, error) {
				select {
				case <-ctx.Done():
					cancelled <- true
					return "", ctx.Err()
				case <-time.After(5 * time.Second):
					return "completed", nil
				}
			})
			time.Sleep(100 * time.Millisecond)
			future.Stop()

			Eventually(cancelled, 2*time.Second).Should(Receive(BeTrue()))
		})

		It("should cancel work when Wait context expires", func() {
			s = scheduler.NewScheduler[string](1)

			future := s.AddWork(func(ctx context.Context) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			})

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			result := future.Wait(ctx)
			Expect(result.Err).To(MatchError(context.DeadlineExceeded))
		})

		It("should cancel work when scheduler is closed", func() {
			s = scheduler.NewScheduler[string](1)

			cancelled := make(chan bool, 1)
			s.AddWork(func(ctx context.Context) (string, error) {
				select {
				case <-ctx.Done():
					cancelled <- true
					return "", ctx.Err()
				case <-time.After(5 * time.Second):
					return "completed", nil
				}
			})
			time.Sleep(100 * time.Millisecond)
			s.Close()
			s = nil // prevent AfterEach from closing again

			Eventually(cancelled, 2*time.Second).Should(Receive(BeTrue()))
		})
	})

	Describe("Goroutine cleanup", func() {
		It("should not leak goroutines after Close under load", func() {
			base := runtime.NumGoroutine()
			s = scheduler.NewScheduler[string](4)

			for i := 0; i < 200; i++ {
				s.AddWork(func(ctx context.Context) (string, error) {
					<-ctx.Done()
					return "", ctx.Err()
				})
			}

			time.Sleep(100 * time.Millisecond)
			s.Close()
			s = nil // prevent AfterEach from closing again

			Eventually(func() int {
				return runtime.NumGoroutine()
			}, 5*time.Second, 100*time.Millisecond).Should(BeNumerically("<=", base+10))
		})
	})

	Describe("Close behavior", func() {
		It("should return canceled when AddWork is called after Close", func() {
			s = scheduler.NewScheduler[string](1)
			s.Close()

			future := s.AddWork(func(ctx context.Context) (string, error) {
				return "done", nil
			})

			var result scheduler.Result[string]
			Eventually(future.C(), 1*time.Second).Should(Receive(&result))
			Expect(result.Err).To(MatchError(context.Canceled))
			s = nil
		})

		It("should wait for in-flight work to finish on Close", func() {
			s = scheduler.NewScheduler[string](1)

			started := make(chan struct{})
			unblock := make(chan struct{})
			s.AddWork(func(ctx context.Context) (string, error) {
				close(started)
				<-unblock
				return "done", nil
			})
			Eventually(started, 1*time.Second).Should(BeClosed())

			closeDone := make(chan struct{})
			go func() {
				s.Close()
				close(closeDone)
			}()

			Consistently(closeDone, 200*time.Millisecond).ShouldNot(BeClosed())
			close(unblock)
			Eventually(closeDone, 1*time.Second).Should(BeClosed())
			s = nil // prevent AfterEach from closing again
		})
	})
})
