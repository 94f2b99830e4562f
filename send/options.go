package send

type Option func(t *Transport)

func WithMiddlewares(middlewares ...Middleware) Option {
	return func(t *Transport) {
		t.Middlewares = middlewares
	}
}

func WithConfirmation() Option {
	return func(t *Transport) {
		t.Confirm = true
	}
}
