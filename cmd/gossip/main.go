package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/nostr-net/gossip"
	kvstore_badger "github.com/nostr-net/gossip/kvstore/badger"
)

type routeCmd struct {
	User          string   `arg:"-u,--user" help:"acting user's public key (hex or npub)"`
	Write         []string `arg:"-w,--write,separate" help:"one of the user's write relays (repeatable)"`
	Read          []string `arg:"-r,--read,separate" help:"one of the user's read relays (repeatable)"`
	Favorite      []string `arg:"--favorite,separate" help:"a favorite relay (repeatable)"`
	Blocked       []string `arg:"--blocked,separate" help:"a blocked relay (repeatable)"`
	Parent        string   `arg:"-p,--parent" help:"event being replied to, as hex id or nevent"`
	PublicMessage bool     `arg:"--public-message" help:"deliver to mentioned recipients' inboxes instead of broadcasting"`
	OpenFrom      []string `arg:"--open-from,separate" help:"preselect exactly these relays (repeatable)"`
	Content       string   `arg:"positional" help:"draft content, scanned for mentions"`
}

type relaysCmd struct {
	User string `arg:"positional,required" help:"public key (hex or npub)"`
}

type args struct {
	Route  *routeCmd  `arg:"subcommand:route" help:"compute the relay selection for a compose action"`
	Relays *relaysCmd `arg:"subcommand:relays" help:"print a user's relay list and outbox ranking"`
}

func (args) Description() string {
	return "gossip inspects NIP-65 outbox/inbox relay routing decisions"
}

func main() {
	var a args
	p := arg.MustParse(&a)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	kv, err := kvstore_badger.NewStore(cfg.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "opening kvstore:", err)
		os.Exit(1)
	}

	mods := []gossip.SystemModifier{gossip.WithKVStore(kv)}
	if len(cfg.RelayListRelays) > 0 {
		mods = append(mods, gossip.WithRelayListRelays(cfg.RelayListRelays))
	}
	if len(cfg.FallbackRelays) > 0 {
		mods = append(mods, gossip.WithFallbackRelays(cfg.FallbackRelays))
	}
	if len(cfg.CacheRelays) > 0 {
		mods = append(mods, gossip.WithCacheRelays(cfg.CacheRelays))
	}

	sys := gossip.NewSystem(mods...)
	defer sys.Close()

	switch {
	case a.Route != nil:
		err = runRoute(ctx, sys, a.Route)
	case a.Relays != nil:
		err = runRelays(ctx, sys, a.Relays)
	default:
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoute(ctx context.Context, sys *gossip.System, cmd *routeCmd) error {
	req := gossip.PublishRequest{
		UserWriteRelays: cmd.Write,
		UserReadRelays:  cmd.Read,
		FavoriteRelays:  cmd.Favorite,
		BlockedRelays:   cmd.Blocked,
		PublicMessage:   cmd.PublicMessage,
		Content:         cmd.Content,
		OpenFrom:        cmd.OpenFrom,
	}

	if cmd.User != "" {
		pk, err := decodePubKey(cmd.User)
		if err != nil {
			return err
		}
		req.UserPubKey = pk
	}

	if cmd.Parent != "" {
		parent, err := fetchParent(ctx, sys, cmd.Parent)
		if err != nil {
			return fmt.Errorf("fetching parent event: %w", err)
		}
		req.ParentEvent = parent
	}

	res := sys.SelectPublishRelays(ctx, req)

	selected := make(map[string]bool, len(res.SelectedRelays))
	for _, url := range res.SelectedRelays {
		selected[url] = true
	}

	for _, url := range res.SelectableRelays {
		if selected[url] {
			color.Green("  [x] %s", url)
			delete(selected, url)
		} else {
			fmt.Printf("  [ ] %s\n", url)
		}
	}
	// openFrom overrides can select relays outside the candidate pool
	for _, url := range res.SelectedRelays {
		if selected[url] {
			color.Green("  [x] %s", url)
		}
	}

	color.New(color.Bold).Println(res.Description)
	return nil
}

func runRelays(ctx context.Context, sys *gossip.System, cmd *relaysCmd) error {
	pk, err := decodePubKey(cmd.User)
	if err != nil {
		return err
	}

	rl := sys.FetchRelayList(ctx, pk)
	if len(rl.Items) == 0 {
		color.Yellow("no relay list found for %s", pk)
	}
	for _, r := range rl.Items {
		scope := "both"
		if !r.Inbox {
			scope = "write"
		} else if !r.Outbox {
			scope = "read"
		}
		fmt.Printf("  %-5s %s\n", scope, r.URL)
	}

	color.New(color.Bold).Println("outbox ranking:")
	for i, url := range sys.FetchOutboxRelays(ctx, pk, 6) {
		fmt.Printf("  %d. %s\n", i+1, url)
	}
	return nil
}

func decodePubKey(s string) (string, error) {
	if nostr.IsValidPublicKey(s) {
		return s, nil
	}
	prefix, value, err := nip19.Decode(s)
	if err != nil {
		return "", fmt.Errorf("'%s' is not a public key: %w", s, err)
	}
	switch prefix {
	case "npub":
		return value.(string), nil
	case "nprofile":
		return value.(nostr.ProfilePointer).PublicKey, nil
	}
	return "", fmt.Errorf("'%s' is not a public key", s)
}

func fetchParent(ctx context.Context, sys *gossip.System, ref string) (*nostr.Event, error) {
	if nostr.IsValid32ByteHex(ref) {
		return sys.FetchEventByID(ctx, ref)
	}
	prefix, value, err := nip19.Decode(ref)
	if err != nil {
		return nil, err
	}
	switch prefix {
	case "note":
		return sys.FetchEventByID(ctx, value.(string))
	case "nevent":
		return sys.FetchEventByPointer(ctx, value.(nostr.EventPointer))
	}
	return nil, fmt.Errorf("'%s' does not point to an event", ref)
}
