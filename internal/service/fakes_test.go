package service

import (
	"fmt"
	"sync"

	"tamasya/internal/external"
)

// fakeProcessor records calls and returns canned intents.
type fakeProcessor struct {
	mu         sync.Mutex
	seq        int
	intents    map[string]*external.Intent
	refunds    []int64
	createErr  error
	refundErr  error
	intentStat string
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		intents:    make(map[string]*external.Intent),
		intentStat: "succeeded",
	}
}

func (f *fakeProcessor) CreateIntent(amount int64, currency string, metadata map[string]string) (*external.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	intent := &external.Intent{
		ID:           fmt.Sprintf("pi_test_%d", f.seq),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", f.seq),
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeProcessor) GetIntent(intentID string) (*external.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[intentID]
	if !ok {
		return &external.Intent{ID: intentID, Status: f.intentStat}, nil
	}
	out := *intent
	out.Status = f.intentStat
	return &out, nil
}

func (f *fakeProcessor) Refund(intentID string, amount int64) (*external.RefundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds = append(f.refunds, amount)
	return &external.RefundResult{ID: fmt.Sprintf("re_test_%d", len(f.refunds)), Amount: amount, Status: "succeeded"}, nil
}

// fakePublisher collects published subjects.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) published(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subjects {
		if s == subject {
			n++
		}
	}
	return n
}
