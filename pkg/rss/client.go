// Package rss implements the client side of the Refresh Secret Sharing
// protocol: driving the two-round HTTP exchange against a committee of
// storage servers, acting as the final co-dealer of the hierarchical
// sharing, aggregating and verifying Feldman commitments, and producing
// factor-encrypted output shares.
package rss

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/ecies"
	"github.com/torusresearch/rss-client/pkg/polynomial"
	"github.com/torusresearch/rss-client/pkg/transport"
)

// Config configures a Client for one or more refresh/import calls.
type Config struct {
	TSSPubKey       curve.HexPoint
	ServerEndpoints []transport.Endpoint
	ServerThreshold int
	ServerPubKeys   []curve.HexPoint // secp256k1, length N
	KeyType         string           // "secp256k1" or "ed25519"

	// TempKey, if set, fixes the client's ephemeral secp256k1 ECIES
	// keypair instead of generating a fresh one. Only this keypair is
	// fixed: polynomial coefficients and ECIES ephemeral keys are still
	// drawn at random on every call.
	TempKey curve.Scalar
}

// Client drives the RSS protocol against a fixed server committee.
type Client struct {
	tssCurve  curve.Curve
	tssPubKey curve.Point

	endpoints []transport.Endpoint
	threshold int
	n         int
	serverPub []curve.Point // secp256k1, length N

	keyType string

	tempPriv curve.Scalar // secp256k1, regardless of tssCurve
	tempPub  curve.Point
}

// New constructs a Client from cfg.
func New(cfg Config) (*Client, error) {
	tssCurve, err := curve.ByName(cfg.KeyType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputInvariant, err)
	}

	tssPubKey, err := curve.DecodeHexPoint(tssCurve, cfg.TSSPubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tssPubKey: %v", ErrInputInvariant, err)
	}

	if len(cfg.ServerEndpoints) != len(cfg.ServerPubKeys) {
		return nil, fmt.Errorf("%w: %d endpoints but %d server pubkeys", ErrInputInvariant, len(cfg.ServerEndpoints), len(cfg.ServerPubKeys))
	}

	secp := curve.Secp256k1{}
	serverPub := make([]curve.Point, len(cfg.ServerPubKeys))
	for i, hp := range cfg.ServerPubKeys {
		p, err := curve.DecodeHexPoint(secp, hp)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid server pubkey %d: %v", ErrInputInvariant, i, err)
		}
		serverPub[i] = p
	}

	tempPriv := cfg.TempKey
	if tempPriv == nil {
		tempPriv, err = secp.RandomScalar(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("rss: failed to generate ephemeral key: %w", err)
		}
	}

	return &Client{
		tssCurve:  tssCurve,
		tssPubKey: tssPubKey,
		endpoints: cfg.ServerEndpoints,
		threshold: cfg.ServerThreshold,
		n:         len(cfg.ServerEndpoints),
		serverPub: serverPub,
		keyType:   cfg.KeyType,
		tempPriv:  tempPriv,
		tempPub:   tempPriv.ActOnBase(),
	}, nil
}

// RefreshOptions carries the inputs to Refresh.
type RefreshOptions struct {
	OldLabel        string
	NewLabel        string
	Sigs            []string
	DkgNewPub       curve.HexPoint
	InputShare      string // hex-encoded TSS-curve scalar
	InputIndex      int    // 2 or 3
	TargetIndexes   []int  // subset of {2,3}
	SelectedServers []int  // length T, distinct, 1-based
	FactorPubs      []curve.HexPoint
}

// ImportOptions carries the inputs to Import.
type ImportOptions struct {
	NewLabel        string
	Sigs            []string
	DkgNewPub       curve.HexPoint
	ImportKey       string // hex-encoded TSS-curve scalar
	TargetIndexes   []int
	SelectedServers []int
	FactorPubs      []curve.HexPoint
}

// Refresh drives the refresh variant of the RSS protocol: proactively
// re-randomizes the server-held sub-sharing and re-encrypts the user's
// resulting share under each factor public key.
func (c *Client) Refresh(ctx context.Context, opts RefreshOptions) ([]RefreshResponse, error) {
	if len(opts.FactorPubs) != len(opts.TargetIndexes) {
		return nil, fmt.Errorf("%w: %d factorPubs but %d targetIndexes", ErrInputInvariant, len(opts.FactorPubs), len(opts.TargetIndexes))
	}

	inputShare, err := curve.DecodeHexScalar(c.tssCurve, opts.InputShare)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid inputShare: %v", ErrInputInvariant, err)
	}
	dkgNewPub, err := curve.DecodeHexPoint(c.tssCurve, opts.DkgNewPub)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dkgNewPub: %v", ErrInputInvariant, err)
	}

	lClient := func(target int) (curve.Scalar, error) {
		a, err := polynomial.LagrangeCoefficient(c.tssCurve, []int{1, opts.InputIndex}, opts.InputIndex, 0)
		if err != nil {
			return nil, err
		}
		b, err := polynomial.LagrangeCoefficient(c.tssCurve, []int{0, 1}, 0, target)
		if err != nil {
			return nil, err
		}
		return a.Mul(b), nil
	}

	serversInfo := ServersInfo{PubKeys: hexPointSlice(c.serverPub), Threshold: c.threshold, Selected: opts.SelectedServers}

	serverResponses, err := c.dispatchRound1(ctx, dispatchOptions{
		withOldSet:      true,
		oldLabel:        opts.OldLabel,
		newLabel:        opts.NewLabel,
		sigs:            opts.Sigs,
		oldUserShareIdx: &opts.InputIndex,
		oldInfo:         &serversInfo,
		newInfo:         serversInfo,
		targetIndexes:   opts.TargetIndexes,
		selectedServers: opts.SelectedServers,
	})
	if err != nil {
		return nil, err
	}

	clientRows, err := c.generateClientContribution(opts.TargetIndexes, lClient, inputShare)
	if err != nil {
		return nil, err
	}

	return c.finish(ctx, opts.TargetIndexes, opts.FactorPubs, dkgNewPub, serverResponses, clientRows)
}

// Import drives the import variant: introduces an externally generated
// secret into the sharing scheme, with the client acting as the (T+1)-th
// co-dealer instead of the (2T+1)-th.
func (c *Client) Import(ctx context.Context, opts ImportOptions) ([]RefreshResponse, error) {
	if len(opts.FactorPubs) != len(opts.TargetIndexes) {
		return nil, fmt.Errorf("%w: %d factorPubs but %d targetIndexes", ErrInputInvariant, len(opts.FactorPubs), len(opts.TargetIndexes))
	}

	importKey, err := curve.DecodeHexScalar(c.tssCurve, opts.ImportKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid importKey: %v", ErrInputInvariant, err)
	}
	dkgNewPub, err := curve.DecodeHexPoint(c.tssCurve, opts.DkgNewPub)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dkgNewPub: %v", ErrInputInvariant, err)
	}

	lClient := func(target int) (curve.Scalar, error) {
		return polynomial.LagrangeCoefficient(c.tssCurve, []int{0, 1}, 0, target)
	}

	serversInfo := ServersInfo{PubKeys: hexPointSlice(c.serverPub), Threshold: c.threshold, Selected: opts.SelectedServers}

	serverResponses, err := c.dispatchRound1(ctx, dispatchOptions{
		withOldSet:      false,
		newLabel:        opts.NewLabel,
		sigs:            opts.Sigs,
		newInfo:         serversInfo,
		targetIndexes:   opts.TargetIndexes,
		selectedServers: opts.SelectedServers,
	})
	if err != nil {
		return nil, err
	}

	clientRows, err := c.generateClientContribution(opts.TargetIndexes, lClient, importKey)
	if err != nil {
		return nil, err
	}

	return c.finish(ctx, opts.TargetIndexes, opts.FactorPubs, dkgNewPub, serverResponses, clientRows)
}

type dispatchOptions struct {
	withOldSet      bool
	oldLabel        string
	newLabel        string
	sigs            []string
	oldUserShareIdx *int
	oldInfo         *ServersInfo
	newInfo         ServersInfo
	targetIndexes   []int
	selectedServers []int
}

// dispatchRound1 issues Round 1 requests in parallel to every server in
// opts.selectedServers, once for the old label and once for the new label
// when withOldSet is true. Each returned RSSRound1Response.Data is indexed
// by target position, in the same order as opts.targetIndexes.
func (c *Client) dispatchRound1(ctx context.Context, opts dispatchOptions) ([]RSSRound1Response, error) {
	type job struct {
		serverIndex int
		serverSet   string
		label       string
	}

	var jobs []job
	for _, idx := range opts.selectedServers {
		if opts.withOldSet {
			jobs = append(jobs, job{serverIndex: idx, serverSet: "old", label: opts.oldLabel})
		}
		jobs = append(jobs, job{serverIndex: idx, serverSet: "new", label: opts.newLabel})
	}

	results := make([]RSSRound1Response, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			body := RSSRound1RequestBody{
				RoundName:         "rss_round_1",
				ServerSet:         j.serverSet,
				ServerIndex:       j.serverIndex,
				OldServersInfo:    opts.oldInfo,
				NewServersInfo:    opts.newInfo,
				OldUserShareIndex: opts.oldUserShareIdx,
				UserTempPubkey:    curve.EncodeHexPoint(c.tempPub),
				TargetIndex:       opts.targetIndexes,
				Auth:              AuthInfo{Label: j.label, Sigs: opts.sigs},
				KeyType:           c.keyType,
			}
			payload, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("rss: failed to marshal round 1 request: %w", err)
			}
			resp, err := c.endpoints[j.serverIndex-1].Post(gctx, "/rss_round_1", payload)
			if err != nil {
				return fmt.Errorf("%w: server %d round 1: %v", ErrTransport, j.serverIndex, err)
			}
			var parsed RSSRound1Response
			if err := json.Unmarshal(resp, &parsed); err != nil {
				return fmt.Errorf("%w: server %d round 1 response: %v", ErrTransport, j.serverIndex, err)
			}
			if len(parsed.Data) != len(opts.targetIndexes) {
				return fmt.Errorf("%w: server %d returned %d targets, want %d", ErrCommitShape, j.serverIndex, len(parsed.Data), len(opts.targetIndexes))
			}
			results[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// generateClientContribution computes the client's own hierarchical
// sharing contribution (the final co-dealer), one row per target index, in
// the order of targetIndexes. lClient computes L_client(t) per spec's
// refresh/import formula.
func (c *Client) generateClientContribution(targetIndexes []int, lClient func(target int) (curve.Scalar, error), secret curve.Scalar) ([]RSSRound1ResponseData, error) {
	rows := make([]RSSRound1ResponseData, len(targetIndexes))

	for k, target := range targetIndexes {
		l, err := lClient(target)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to compute client lagrange coefficient: %v", ErrInputInvariant, err)
		}
		constant := l.Mul(secret)

		masterPoly, err := polynomial.Generate(rand.Reader, c.tssCurve, 1, constant)
		if err != nil {
			return nil, fmt.Errorf("rss: failed to generate master polynomial: %w", err)
		}
		serverConstant := masterPoly.Eval(c.tssCurve.ScalarFromInt(1))
		serverPoly, err := polynomial.Generate(rand.Reader, c.tssCurve, c.threshold-1, serverConstant)
		if err != nil {
			return nil, fmt.Errorf("rss: failed to generate server polynomial: %w", err)
		}

		userShareValue := masterPoly.Eval(c.tssCurve.ScalarFromInt(UserShareIndex))
		userEnc, err := eciesEncryptScalar(c.tempPub, userShareValue)
		if err != nil {
			return nil, fmt.Errorf("rss: failed to encrypt user share: %w", err)
		}

		serverEncs := make([]*ecies.EncryptedMessage, c.n)
		for j := 0; j < c.n; j++ {
			share := serverPoly.Eval(c.tssCurve.ScalarFromInt(int64(j + 1)))
			enc, err := eciesEncryptScalar(c.serverPub[j], share)
			if err != nil {
				return nil, fmt.Errorf("rss: failed to encrypt server share %d: %w", j, err)
			}
			serverEncs[j] = enc
		}

		rows[k] = RSSRound1ResponseData{
			MasterPolyCommits: hexPointSlice(polynomial.NewExponent(masterPoly).Coefficients),
			ServerPolyCommits: hexPointSlice(polynomial.NewExponent(serverPoly).Coefficients),
			TargetEncryptions: TargetEncryptions{
				UserEnc:    *userEnc,
				ServerEncs: serverEncs,
			},
		}
	}

	return rows, nil
}

// finish aggregates, verifies, decrypts and re-encrypts per target index,
// then drives Round 2.
func (c *Client) finish(ctx context.Context, targetIndexes []int, factorPubs []curve.HexPoint, dkgNewPub curve.Point, serverResponses []RSSRound1Response, clientRows []RSSRound1ResponseData) ([]RefreshResponse, error) {
	masterLen := 2
	serverLen := c.threshold

	type perTarget struct {
		agg           *aggregatedCommitments
		userShare     curve.Scalar
		userFactorEnc *ecies.EncryptedMessage
		serverColumns [][]*ecies.EncryptedMessage // indexed [serverIdx][coDealer]
	}

	results := make([]perTarget, len(targetIndexes))

	for k, target := range targetIndexes {
		rows := make([]RSSRound1ResponseData, 0, len(serverResponses)+1)
		for _, sr := range serverResponses {
			rows = append(rows, sr.Data[k])
		}
		rows = append(rows, clientRows[k])

		agg, err := aggregateCommitments(c.tssCurve, rows, masterLen, serverLen)
		if err != nil {
			return nil, err
		}
		if err := verifyTSSPubKey(c.tssCurve, agg, dkgNewPub, c.tssPubKey, target); err != nil {
			return nil, err
		}
		if err := verifyMasterServerLink(agg); err != nil {
			return nil, err
		}

		userShare := c.tssCurve.NewScalar()
		for _, row := range rows {
			decoded, err := eciesDecryptScalar(c.tssCurve, c.tempPriv.Bytes(), &row.TargetEncryptions.UserEnc)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
			}
			userShare = userShare.Add(decoded)
		}

		ninetyNine := c.tssCurve.ScalarFromInt(UserShareIndex)
		expected := agg.Master.Coefficients[0].Add(ninetyNine.Act(agg.Master.Coefficients[1]))
		if !userShare.ActOnBase().Equal(expected) {
			return nil, fmt.Errorf("%w: G*userShare != mc[0] + 99*mc[1]", ErrShareConsistency)
		}

		factorPoint, err := curve.DecodeHexPoint(curve.Secp256k1{}, factorPubs[k])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid factor pubkey: %v", ErrInputInvariant, err)
		}
		userFactorEnc, err := eciesEncryptScalar(factorPoint, userShare)
		if err != nil {
			return nil, fmt.Errorf("rss: failed to encrypt user factor share: %w", err)
		}

		columns := make([][]*ecies.EncryptedMessage, c.n)
		for j := 0; j < c.n; j++ {
			col := make([]*ecies.EncryptedMessage, 0, len(rows))
			for _, row := range rows {
				col = append(col, row.TargetEncryptions.ServerEncs[j])
			}
			columns[j] = col
		}

		results[k] = perTarget{agg: agg, userShare: userShare, userFactorEnc: userFactorEnc, serverColumns: columns}
	}

	aggs := make([]*aggregatedCommitments, len(results))
	columns := make([][][]*ecies.EncryptedMessage, len(results))
	for k, r := range results {
		aggs[k] = r.agg
		columns[k] = r.serverColumns
	}

	serverFactorEncs, err := c.dispatchRound2(ctx, targetIndexes, factorPubs, aggs, columns)
	if err != nil {
		return nil, err
	}

	out := make([]RefreshResponse, len(targetIndexes))
	for k, target := range targetIndexes {
		out[k] = RefreshResponse{
			TargetIndex:      target,
			FactorPub:        factorPubs[k],
			ServerFactorEncs: serverFactorEncs[k],
			UserFactorEnc:    *results[k].userFactorEnc,
		}
	}
	return out, nil
}

// dispatchRound2 issues Round 2 to every server with its column of
// encrypted shares per target, tolerating individual server failures. It
// returns, for each target position, an N-wide slice of factor-encrypted
// shares with nil entries for servers that did not respond usably.
func (c *Client) dispatchRound2(ctx context.Context, targetIndexes []int, factorPubs []curve.HexPoint, aggs []*aggregatedCommitments, columns [][][]*ecies.EncryptedMessage) ([][]*ecies.EncryptedMessage, error) {
	out := make([][]*ecies.EncryptedMessage, len(targetIndexes))
	for k := range targetIndexes {
		out[k] = make([]*ecies.EncryptedMessage, c.n)
	}

	var successCount int32
	g, gctx := errgroup.WithContext(ctx)
	for j := 0; j < c.n; j++ {
		j := j
		g.Go(func() error {
			data := make([]RSSRound2RequestData, len(targetIndexes))
			for k := range targetIndexes {
				data[k] = RSSRound2RequestData{
					MasterCommits: hexPointSlice(aggs[k].Master.Coefficients),
					ServerCommits: hexPointSlice(aggs[k].Server.Coefficients),
					ServerEncs:    columns[k][j],
					FactorPubkeys: []curve.HexPoint{factorPubs[k]},
				}
			}
			body := RSSRound2RequestBody{
				RoundName:   "rss_round_2",
				ServerIndex: j + 1,
				TargetIndex: targetIndexes,
				Data:        data,
				KeyType:     c.keyType,
			}
			payload, err := json.Marshal(body)
			if err != nil {
				return nil // marshal failures here are a client bug, not a server fault; surfaced via panic-free nil slot
			}
			resp, err := c.endpoints[j].Post(gctx, "/rss_round_2", payload)
			if err != nil {
				return nil // best-effort: leave this server's slots nil
			}
			var parsed RSSRound2Response
			if err := json.Unmarshal(resp, &parsed); err != nil {
				return nil
			}
			if len(parsed.Data) != len(targetIndexes) {
				return nil
			}
			for k := range targetIndexes {
				if len(parsed.Data[k].Encs) != 1 {
					continue
				}
				out[k][j] = parsed.Data[k].Encs[0]
			}
			atomic.AddInt32(&successCount, 1)
			return nil
		})
	}
	_ = g.Wait()

	if int(successCount) < c.threshold {
		return nil, fmt.Errorf("%w: only %d of %d required servers responded", ErrAvailability, successCount, c.threshold)
	}
	return out, nil
}


func hexPointSlice(points []curve.Point) []curve.HexPoint {
	out := make([]curve.HexPoint, len(points))
	for i, p := range points {
		out[i] = curve.EncodeHexPoint(p)
	}
	return out
}

func eciesEncryptScalar(pub curve.Point, s curve.Scalar) (*ecies.EncryptedMessage, error) {
	return ecies.Encrypt(compressedSecp256k1Bytes(pub), s.Bytes())
}

func eciesDecryptScalar(c curve.Curve, priv []byte, msg *ecies.EncryptedMessage) (curve.Scalar, error) {
	data, err := ecies.Decrypt(priv, msg)
	if err != nil {
		return nil, err
	}
	return c.DecodeScalar(data)
}

func compressedSecp256k1Bytes(p curve.Point) []byte {
	return p.(interface{ Bytes() []byte }).Bytes()
}
