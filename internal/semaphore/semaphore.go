// Package semaphore provides a simple counting semaphore used to bound the
// number of concurrent measurement requests.
package semaphore

type Semaphore chan struct{}

func New(concurrency int) Semaphore {
	return make(chan struct{}, concurrency)
}

func (s Semaphore) Acquire() {
	s <- struct{}{}
}

func (s Semaphore) Release() {
	<-s
}
