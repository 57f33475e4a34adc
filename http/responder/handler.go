package responder

type Option func(*Meta)

func WithTraceID(id string) Option {
	return func(m *Meta) {
		m.TraceID = id
	}
}

func WithTook(ms int64) Option {
	return func(m *Meta) {
		m.Took = ms
	}
}

func NewMeta(opts ...Option) Meta {
	var meta Meta
	for _, opt := range opts {
		opt(&meta)
	}
	return meta
}
