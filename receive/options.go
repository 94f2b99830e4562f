package receive

type Option func(e *Endpoint)

func WithName(name string) Option {
	return func(e *Endpoint) {
		e.Name = name
	}
}

func WithPrefetchCount(prefetchCount int) Option {
	return func(e *Endpoint) {
		e.PrefetchCount = prefetchCount
	}
}

func WithConcurrency(concurrency int) Option {
	return func(e *Endpoint) {
		e.Concurrency = concurrency
	}
}

func WithMiddlewares(middlewares ...Middleware) Option {
	return func(e *Endpoint) {
		e.Middlewares = middlewares
	}
}
