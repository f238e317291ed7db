package mockserver

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/rss"
)

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func validRound1Body(selected []int, pubkeys []curve.HexPoint) rss.RSSRound1RequestBody {
	return rss.RSSRound1RequestBody{
		RoundName:   "rss_round_1",
		ServerSet:   "new",
		ServerIndex: selected[0],
		NewServersInfo: rss.ServersInfo{
			PubKeys:   pubkeys,
			Threshold: 3,
			Selected:  selected,
		},
		UserTempPubkey: curve.EncodeHexPoint(curve.Secp256k1{}.Generator()),
		TargetIndex:    []int{2},
		Auth:           rss.AuthInfo{Label: "acct"},
		KeyType:        "secp256k1",
	}
}

func TestHandleRound1RejectsOutOfRangeTarget(t *testing.T) {
	srv := New(1)
	defer srv.Close()

	pubkeys := []curve.HexPoint{curve.EncodeHexPoint(srv.PublicKey())}
	body := validRound1Body([]int{1}, pubkeys)
	body.TargetIndex = []int{7}

	resp := postJSON(t, srv.URL()+"/rss_round_1", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRound1RejectsUnselectedServerIndex(t *testing.T) {
	srv := New(1)
	defer srv.Close()

	pubkeys := []curve.HexPoint{curve.EncodeHexPoint(srv.PublicKey())}
	body := validRound1Body([]int{1}, pubkeys)
	body.ServerIndex = 2 // not in Selected

	resp := postJSON(t, srv.URL()+"/rss_round_1", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRound1RejectsOutOfRangeOldUserShareIndex(t *testing.T) {
	srv := New(1)
	defer srv.Close()

	pubkeys := []curve.HexPoint{curve.EncodeHexPoint(srv.PublicKey())}
	body := validRound1Body([]int{1}, pubkeys)
	bad := 9
	body.OldUserShareIndex = &bad

	resp := postJSON(t, srv.URL()+"/rss_round_1", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestsRecordsHandledPaths(t *testing.T) {
	srv := New(1)
	defer srv.Close()

	pubkeys := []curve.HexPoint{curve.EncodeHexPoint(srv.PublicKey())}
	body := validRound1Body([]int{1}, pubkeys)

	resp := postJSON(t, srv.URL()+"/rss_round_1", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, []string{"/rss_round_1"}, srv.Requests())
}

func TestPrivateKeyEndpointUpdatesPublicKey(t *testing.T) {
	srv := New(1)
	defer srv.Close()

	c := curve.Secp256k1{}
	newPriv, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	resp := postJSON(t, srv.URL()+"/private_key", map[string]string{
		"private_key": curve.EncodeHexScalar(newPriv),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.True(t, srv.PublicKey().Equal(newPriv.ActOnBase()))
}
