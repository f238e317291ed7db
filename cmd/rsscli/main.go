// Command rsscli is a thin example client driving refresh, import and
// recovery calls against a live or mock RSS server committee, printing the
// resulting JSON (or, for recovery, the hex-encoded share) to stdout. It carries no protocol logic of its own; all of
// it lives in pkg/rss.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/rss"
	"github.com/torusresearch/rss-client/pkg/transport"
)

var commonFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:     "server",
		Usage:    "base URL of a storage server, repeatable, in server-index order",
		Required: true,
	},
	&cli.StringSliceFlag{
		Name:     "server-pubkey",
		Usage:    "server secp256k1 pubkey as x:y hex, repeatable, matching --server order",
		Required: true,
	},
	&cli.IntFlag{
		Name:     "threshold",
		Usage:    "reconstruction threshold T",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "tss-pubkey",
		Usage:    "known TSS public key as x:y hex",
		Required: true,
	},
	&cli.StringFlag{
		Name:  "key-type",
		Usage: "tss curve: secp256k1 or ed25519",
		Value: "secp256k1",
	},
	&cli.IntSliceFlag{
		Name:     "target",
		Usage:    "target user share index, repeatable, subset of {2,3}",
		Required: true,
	},
	&cli.IntSliceFlag{
		Name:     "selected-server",
		Usage:    "1-based server index participating in this call, repeatable, length T",
		Required: true,
	},
	&cli.StringSliceFlag{
		Name:     "factor-pub",
		Usage:    "factor secp256k1 pubkey as x:y hex, repeatable, matching --target order",
		Required: true,
	},
	&cli.StringFlag{
		Name:     "dkg-new-pub",
		Usage:    "new DKG public key share as x:y hex, or empty for the group identity",
		Value:    "",
	},
	&cli.StringFlag{
		Name:  "new-label",
		Usage: "auth label the new share set is registered under",
		Value: "rsscli",
	},
	&cli.StringSliceFlag{
		Name:  "sig",
		Usage: "auth signature, repeatable",
	},
	&cli.DurationFlag{
		Name:  "timeout",
		Usage: "request timeout",
		Value: 30 * time.Second,
	},
}

func main() {
	app := &cli.App{
		Name:  "rsscli",
		Usage: "drive refresh, import and recovery against an RSS server committee",
		Commands: []*cli.Command{
			refreshCommand,
			importCommand,
			recoverCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var refreshCommand = &cli.Command{
	Name:  "refresh",
	Usage: "proactively re-randomize an existing share set",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "old-label", Required: true, Usage: "auth label the existing share set is registered under"},
		&cli.StringFlag{Name: "input-share", Required: true, Usage: "hex-encoded current TSS share"},
		&cli.IntFlag{Name: "input-index", Required: true, Usage: "current share index, 2 or 3"},
	}, commonFlags...),
	Action: func(cCtx *cli.Context) error {
		client, err := newClientFromFlags(cCtx)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cCtx.Duration("timeout"))
		defer cancel()

		factorPubs, err := parseHexPoints(cCtx.StringSlice("factor-pub"))
		if err != nil {
			return err
		}
		dkgNewPub, err := parseHexPointOrIdentity(cCtx.String("dkg-new-pub"))
		if err != nil {
			return err
		}

		responses, err := client.Refresh(ctx, rss.RefreshOptions{
			OldLabel:        cCtx.String("old-label"),
			NewLabel:        cCtx.String("new-label"),
			Sigs:            cCtx.StringSlice("sig"),
			DkgNewPub:       dkgNewPub,
			InputShare:      cCtx.String("input-share"),
			InputIndex:      cCtx.Int("input-index"),
			TargetIndexes:   cCtx.IntSlice("target"),
			SelectedServers: cCtx.IntSlice("selected-server"),
			FactorPubs:      factorPubs,
		})
		if err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
		return printJSON(responses)
	},
}

var importCommand = &cli.Command{
	Name:  "import",
	Usage: "introduce an externally generated secret into the sharing scheme",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "import-key", Required: true, Usage: "hex-encoded TSS-curve scalar to import"},
	}, commonFlags...),
	Action: func(cCtx *cli.Context) error {
		client, err := newClientFromFlags(cCtx)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cCtx.Duration("timeout"))
		defer cancel()

		factorPubs, err := parseHexPoints(cCtx.StringSlice("factor-pub"))
		if err != nil {
			return err
		}
		dkgNewPub, err := parseHexPointOrIdentity(cCtx.String("dkg-new-pub"))
		if err != nil {
			return err
		}

		responses, err := client.Import(ctx, rss.ImportOptions{
			NewLabel:        cCtx.String("new-label"),
			Sigs:            cCtx.StringSlice("sig"),
			DkgNewPub:       dkgNewPub,
			ImportKey:       cCtx.String("import-key"),
			TargetIndexes:   cCtx.IntSlice("target"),
			SelectedServers: cCtx.IntSlice("selected-server"),
			FactorPubs:      factorPubs,
		})
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return printJSON(responses)
	},
}

var recoverCommand = &cli.Command{
	Name:  "recover",
	Usage: "reconstruct a refreshed share from a refresh/import response",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "key-type", Value: "secp256k1", Usage: "tss curve: secp256k1 or ed25519"},
		&cli.StringFlag{Name: "factor-key", Required: true, Usage: "hex-encoded factor secp256k1 scalar"},
		&cli.StringFlag{Name: "response-file", Required: true, Usage: "path to a JSON-encoded rss.RefreshResponse"},
		&cli.IntSliceFlag{Name: "selected-server", Required: true, Usage: "1-based server indices whose factor encryptions are populated"},
	},
	Action: func(cCtx *cli.Context) error {
		c, err := curve.ByName(cCtx.String("key-type"))
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(cCtx.String("response-file"))
		if err != nil {
			return fmt.Errorf("reading response file: %w", err)
		}
		var resp rss.RefreshResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fmt.Errorf("parsing response file: %w", err)
		}

		share, err := rss.Recover(c, rss.RecoverOptions{
			FactorKey:       cCtx.String("factor-key"),
			UserEnc:         resp.UserFactorEnc,
			ServerEncs:      resp.ServerFactorEncs,
			SelectedServers: cCtx.IntSlice("selected-server"),
		})
		if err != nil {
			return fmt.Errorf("recover failed: %w", err)
		}
		fmt.Println(curve.EncodeHexScalar(share))
		return nil
	},
}

func newClientFromFlags(cCtx *cli.Context) (*rss.Client, error) {
	servers := cCtx.StringSlice("server")
	pubkeyStrs := cCtx.StringSlice("server-pubkey")
	if len(servers) != len(pubkeyStrs) {
		return nil, fmt.Errorf("%d --server flags but %d --server-pubkey flags", len(servers), len(pubkeyStrs))
	}
	pubkeys, err := parseHexPoints(pubkeyStrs)
	if err != nil {
		return nil, err
	}

	endpoints := make([]transport.Endpoint, len(servers))
	for i, url := range servers {
		endpoints[i] = transport.NewHTTPEndpoint(url, &http.Client{Timeout: cCtx.Duration("timeout")})
	}

	tssPubKey, err := parseHexPoint(cCtx.String("tss-pubkey"))
	if err != nil {
		return nil, err
	}

	return rss.New(rss.Config{
		TSSPubKey:       tssPubKey,
		ServerEndpoints: endpoints,
		ServerThreshold: cCtx.Int("threshold"),
		ServerPubKeys:   pubkeys,
		KeyType:         cCtx.String("key-type"),
	})
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// parseHexPoint parses the "x:y" wire format used throughout this CLI's
// flags. An empty string is rejected; use parseHexPointOrIdentity where the
// group identity is a valid value.
func parseHexPoint(s string) (curve.HexPoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return curve.HexPoint{}, fmt.Errorf("invalid point %q: want x:y hex", s)
	}
	x, y := parts[0], parts[1]
	return curve.HexPoint{X: &x, Y: &y}, nil
}

func parseHexPointOrIdentity(s string) (curve.HexPoint, error) {
	if s == "" {
		return curve.HexPoint{}, nil
	}
	return parseHexPoint(s)
}

func parseHexPoints(ss []string) ([]curve.HexPoint, error) {
	out := make([]curve.HexPoint, len(ss))
	for i, s := range ss {
		p, err := parseHexPoint(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}
