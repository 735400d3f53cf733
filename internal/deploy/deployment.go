// Package deploy runs a fixed set of model replicas behind one Recognizer.
//
// Every replica owns its own model and handles one call at a time. Calls are
// spread over replicas round-robin; a caller waits on its replica's lock,
// bounded only by its context.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Vovarama1992/asrserve/internal/metrics"
	"github.com/Vovarama1992/asrserve/internal/ports"
)

// Resources is the quota a deployment declares. NumGPUs may be fractional.
type Resources struct {
	NumCPUs int
	NumGPUs float64
}

type Options struct {
	NumReplicas int
	Resources   Resources
}

// ReplicaFactory builds the model for replica i.
type ReplicaFactory func(i int) (ports.Recognizer, error)

type replica struct {
	id  int
	rec ports.Recognizer
	// buffered(1): holding the token means the replica is busy
	slot chan struct{}
}

type Deployment struct {
	opts     Options
	replicas []*replica
	next     atomic.Uint64
}

func New(opts Options, build ReplicaFactory) (*Deployment, error) {
	if opts.NumReplicas < 1 {
		return nil, fmt.Errorf("deploy: num replicas must be >= 1, got %d", opts.NumReplicas)
	}
	if build == nil {
		return nil, errors.New("deploy: replica factory is nil")
	}

	d := &Deployment{opts: opts}
	for i := 0; i < opts.NumReplicas; i++ {
		rec, err := build(i)
		if err != nil {
			return nil, fmt.Errorf("deploy: replica %d: %w", i, err)
		}
		d.replicas = append(d.replicas, &replica{
			id:   i,
			rec:  rec,
			slot: make(chan struct{}, 1),
		})
	}
	return d, nil
}

func (d *Deployment) NumReplicas() int { return len(d.replicas) }

func (d *Deployment) Resources() Resources { return d.opts.Resources }

func (d *Deployment) pick() *replica {
	n := d.next.Add(1) - 1
	return d.replicas[n%uint64(len(d.replicas))]
}

func (d *Deployment) Predict(ctx context.Context, filepath string) (string, error) {
	r := d.pick()
	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.release()
	return r.rec.Predict(ctx, filepath)
}

func (d *Deployment) PredictSamples(ctx context.Context, samples []float32) (string, error) {
	r := d.pick()
	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.release()
	return r.rec.PredictSamples(ctx, samples)
}

func (r *replica) acquire(ctx context.Context) error {
	select {
	case r.slot <- struct{}{}:
		metrics.SetReplicaBusy(r.id, true)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("replica %d: %w", r.id, ctx.Err())
	}
}

func (r *replica) release() {
	metrics.SetReplicaBusy(r.id, false)
	<-r.slot
}
