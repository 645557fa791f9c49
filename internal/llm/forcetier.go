package llm

import "context"

// forceTier wraps a Client and pins every call to one tier. Used when
// tier routing is disabled and everything should run on the high model.
type forceTier struct {
	Client
	tier ModelTier
}

// ForceTier returns a Client that ignores the requested tier and always
// uses the given one.
func ForceTier(client Client, tier ModelTier) Client {
	return &forceTier{Client: client, tier: tier}
}

func (f *forceTier) Chat(ctx context.Context, _ ModelTier, temperature float32, system, user string) (string, error) {
	return f.Client.Chat(ctx, f.tier, temperature, system, user)
}

func (f *forceTier) ChatJSON(ctx context.Context, _ ModelTier, temperature float32, system, user string) (string, error) {
	return f.Client.ChatJSON(ctx, f.tier, temperature, system, user)
}
