package gossip

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nbd-wtf/go-nostr"
)

// SelectPublishRelays answers, for a publish action, which relays the user can pick
// from and which ones should start out picked. The two lists are computed
// independently from the same request so neither can corrupt the other, and both get
// the blocked-relay filter applied on their own.
func (sys *System) SelectPublishRelays(ctx context.Context, req PublishRequest) SelectionResult {
	if req.BlockedRelays == nil && nostr.IsValidPublicKey(req.UserPubKey) {
		req.BlockedRelays = sys.FetchBlockedRelays(ctx, req.UserPubKey)
	}

	selectable := sys.BuildSelectableRelays(ctx, req)
	selected := sys.ResolveSelectedRelays(ctx, req)

	return SelectionResult{
		SelectableRelays: selectable,
		SelectedRelays:   selected,
		Description:      describeSelection(selected),
	}
}

// describeSelection summarizes a selection for display next to the publish button.
func describeSelection(selected []string) string {
	switch len(selected) {
	case 0:
		return "No relays selected"
	case 1:
		if p, err := url.Parse(selected[0]); err == nil && p.Hostname() != "" {
			return p.Hostname()
		}
		return selected[0]
	default:
		return fmt.Sprintf("%d relays", len(selected))
	}
}
