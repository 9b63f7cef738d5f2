package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/shatter/pkg/scene"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// Fatal evaluation outcomes.
var (
	ErrTimeout    = errors.New("evaluation timed out")
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one sandbox run back to Evaluate.
type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// waitWithTimeout returns the result on ch unless limit passes first, or a
// newer evaluation has bumped currentGen past gen. A timed-out sandbox keeps
// running; its late result is dropped by the generation check.
func waitWithTimeout(ch <-chan evalResult, gen uint64, limit time.Duration, mu *sync.Mutex, currentGen *uint64) (*scene.Scene, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *currentGen
		mu.Unlock()
		if stale {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
