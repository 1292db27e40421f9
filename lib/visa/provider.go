package visa

import "context"

// Provider resolves the record known for a country and visa type.
//
// no data is not an error, implementations return an empty Record and a nil
// error. the error return is reserved for failures of the backing store or
// transport.
type Provider interface {
	Resolve(ctx context.Context, country, visaType string) (Record, error)
}

type ProviderFunc func(ctx context.Context, country, visaType string) (Record, error)

func (f ProviderFunc) Resolve(ctx context.Context, country, visaType string) (Record, error) {
	return f(ctx, country, visaType)
}
