package form

import "context"

// Resolver turns a day's short URL into the full viewform URL of its form.
type Resolver interface {
	Resolve(ctx context.Context, mode Mode, day Weekday) (string, error)
}

// Inspector reads a live form page: the hidden anti-forgery token and the
// entry IDs of the fields a submission must fill.
type Inspector interface {
	Token(ctx context.Context, formURL string) (string, error)
	Discover(ctx context.Context, formURL string, needReason bool) (FieldIDs, error)
}

// Submitter posts one prepared descriptor and classifies the response.
type Submitter interface {
	Submit(ctx context.Context, d *Descriptor) Outcome
}
