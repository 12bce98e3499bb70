package responder

type Option func(responder *JSONResponder)

func WithHeaders(headers map[string]string) Option {
	return func(responder *JSONResponder) {
		for key, value := range headers {
			responder.SetHeader(key, value)
		}
	}
}
