package rss

import (
	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/ecies"
)

// UserShareIndex is the fixed index at which the user's share sits on the
// master polynomial. It is a protocol constant, never configurable.
const UserShareIndex = 99

// ServersInfo describes the committee a Round 1 request is addressed to.
type ServersInfo struct {
	PubKeys   []curve.HexPoint `json:"pubkeys"`
	Threshold int              `json:"threshold"`
	Selected  []int            `json:"selected"`
}

// RSSRound1RequestBody is the body of POST {server}/rss_round_1.
type RSSRound1RequestBody struct {
	RoundName       string           `json:"round_name"`
	ServerSet       string           `json:"server_set"`
	ServerIndex     int              `json:"server_index"`
	OldServersInfo  *ServersInfo     `json:"old_servers_info,omitempty"`
	NewServersInfo  ServersInfo      `json:"new_servers_info"`
	OldUserShareIndex *int           `json:"old_user_share_index,omitempty"`
	UserTempPubkey  curve.HexPoint   `json:"user_temp_pubkey"`
	TargetIndex     []int            `json:"target_index"`
	Auth            AuthInfo         `json:"auth"`
	KeyType         string           `json:"key_type"`
}

// AuthInfo carries the pass-through session authentication described in
// spec's design notes: the label/signature pair is forwarded but never
// verified client-side. That verification is an open question left to the
// server.
type AuthInfo struct {
	Label string   `json:"label"`
	Sigs  []string `json:"sigs"`
}

// RSSRound1ResponseData is one target index's worth of a single co-dealer's
// Round 1 contribution.
type RSSRound1ResponseData struct {
	MasterPolyCommits []curve.HexPoint   `json:"master_poly_commits"`
	ServerPolyCommits []curve.HexPoint   `json:"server_poly_commits"`
	TargetEncryptions TargetEncryptions  `json:"target_encryptions"`
}

// TargetEncryptions holds one co-dealer's encrypted shares for one target
// index: the user's own share, and one column entry per server.
type TargetEncryptions struct {
	UserEnc    ecies.EncryptedMessage   `json:"user_enc"`
	ServerEncs []*ecies.EncryptedMessage `json:"server_encs"`
}

// RSSRound1Response is the response body of POST {server}/rss_round_1.
type RSSRound1Response struct {
	TargetIndex []int                    `json:"target_index"`
	Data        []RSSRound1ResponseData  `json:"data"`
}

// RSSRound2RequestData is one target index's worth of the Round 2 request:
// the fully aggregated commitments plus the server's own column of
// encrypted shares.
type RSSRound2RequestData struct {
	MasterCommits []curve.HexPoint          `json:"master_commits"`
	ServerCommits []curve.HexPoint          `json:"server_commits"`
	ServerEncs    []*ecies.EncryptedMessage `json:"server_encs"`
	FactorPubkeys []curve.HexPoint          `json:"factor_pubkeys"`
}

// RSSRound2RequestBody is the body of POST {server}/rss_round_2.
type RSSRound2RequestBody struct {
	RoundName   string                  `json:"round_name"`
	ServerIndex int                     `json:"server_index"`
	TargetIndex []int                   `json:"target_index"`
	Data        []RSSRound2RequestData  `json:"data"`
	KeyType     string                  `json:"key_type"`
}

// RSSRound2ResponseDatum wraps a server's per-target factor encryptions.
type RSSRound2ResponseDatum struct {
	Encs []*ecies.EncryptedMessage `json:"encs"`
}

// RSSRound2Response is the response body of POST {server}/rss_round_2.
type RSSRound2Response struct {
	TargetIndex []int                    `json:"target_index"`
	Data        []RSSRound2ResponseDatum `json:"data"`
}

// RefreshResponse is the client's final output for one target index.
type RefreshResponse struct {
	TargetIndex      int                       `json:"targetIndex"`
	FactorPub        curve.HexPoint            `json:"factorPub"`
	ServerFactorEncs []*ecies.EncryptedMessage `json:"serverFactorEncs"`
	UserFactorEnc    ecies.EncryptedMessage    `json:"userFactorEnc"`
}
