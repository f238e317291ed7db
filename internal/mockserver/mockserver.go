// Package mockserver implements the server side of the RSS protocol
// in-process, for deterministic client-side tests. It is not a reference
// server implementation — the server side is an external collaborator per
// spec, specified only to the extent the client must tolerate it.
package mockserver

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/ecies"
	"github.com/torusresearch/rss-client/pkg/hash"
	"github.com/torusresearch/rss-client/pkg/polynomial"
	"github.com/torusresearch/rss-client/pkg/rss"
)

// Server is one in-process mock committee member.
type Server struct {
	Index int

	mu         sync.Mutex
	priv       curve.Scalar // secp256k1, for ECIES
	pub        curve.Point
	tssShares  map[string]curve.Scalar // hash.Digest of label -> server's x=1 share
	tssNonce   map[string]int
	requests   []string

	httpServer *httptest.Server
}

// New starts an in-process mock server at index (1-based).
func New(index int) *Server {
	s := &Server{
		Index:     index,
		tssShares: make(map[string]curve.Scalar),
		tssNonce:  make(map[string]int),
	}
	secp := curve.Secp256k1{}
	priv, err := secp.RandomScalar(rand.Reader)
	if err != nil {
		panic(fmt.Sprintf("mockserver: failed to generate private key: %v", err))
	}
	s.priv = priv
	s.pub = priv.ActOnBase()

	mux := http.NewServeMux()
	mux.HandleFunc("/rss_round_1", s.handleRound1)
	mux.HandleFunc("/rss_round_2", s.handleRound2)
	mux.HandleFunc("/private_key", s.handlePrivateKey)
	mux.HandleFunc("/public_key", s.handlePublicKey)
	mux.HandleFunc("/tss_share", s.handleTSSShare)
	mux.HandleFunc("/get_tss_nonce", s.handleGetNonce)
	mux.HandleFunc("/set_tss_nonce", s.handleSetNonce)
	s.httpServer = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the mock server's HTTP listener.
func (s *Server) URL() string { return s.httpServer.URL }

// PublicKey returns the server's secp256k1 public key.
func (s *Server) PublicKey() curve.Point { return s.pub }

// Close shuts down the underlying HTTP listener.
func (s *Server) Close() { s.httpServer.Close() }

// Requests returns the path of every request this server has handled, in
// order, for test assertions.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// SetShare pins the server's stored TSS share for label to share, bypassing
// the usual first-touch random generation. Tests use this to construct
// scenarios with a known, reproducible aggregate secret.
func (s *Server) SetShare(label string, share curve.Scalar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tssShares[hash.Digest("mockserver-tss-share", []byte(label))] = share
}

func (s *Server) logRequest(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, path)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

func (s *Server) handleRound1(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/rss_round_1")

	var body rss.RSSRound1RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	for _, t := range body.TargetIndex {
		if t != 2 && t != 3 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("mockserver: target index %d out of range", t))
			return
		}
	}
	if body.OldUserShareIndex != nil && *body.OldUserShareIndex != 2 && *body.OldUserShareIndex != 3 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("mockserver: old_user_share_index %d out of range", *body.OldUserShareIndex))
		return
	}
	if !containsInt(body.NewServersInfo.Selected, body.ServerIndex) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("mockserver: server_index %d not selected", body.ServerIndex))
		return
	}

	c, err := curve.ByName(body.KeyType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userTempPub, err := curve.DecodeHexPoint(curve.Secp256k1{}, body.UserTempPubkey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	threshold := body.NewServersInfo.Threshold
	n := len(body.NewServersInfo.PubKeys)

	serverPubs := make([]curve.Point, n)
	for i, hp := range body.NewServersInfo.PubKeys {
		p, err := curve.DecodeHexPoint(curve.Secp256k1{}, hp)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		serverPubs[i] = p
	}

	data := make([]rss.RSSRound1ResponseData, len(body.TargetIndex))
	for k, target := range body.TargetIndex {
		lc, err := s.lagrangeContribution(c, body, target)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		tssShare := s.shareForLabel(c, body.Auth.Label)
		constant := lc.Mul(tssShare)

		masterPoly, err := polynomial.Generate(rand.Reader, c, 1, constant)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		serverPoly, err := polynomial.Generate(rand.Reader, c, threshold-1, masterPoly.Eval(c.ScalarFromInt(1)))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		userShare := masterPoly.Eval(c.ScalarFromInt(rss.UserShareIndex))
		userEnc, err := ecies.Encrypt(userTempPub.Bytes(), userShare.Bytes())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		serverEncs := make([]*ecies.EncryptedMessage, n)
		for j := 0; j < n; j++ {
			share := serverPoly.Eval(c.ScalarFromInt(int64(j + 1)))
			enc, err := ecies.Encrypt(serverPubs[j].Bytes(), share.Bytes())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			serverEncs[j] = enc
		}

		data[k] = rss.RSSRound1ResponseData{
			MasterPolyCommits: hexPoints(polynomial.NewExponent(masterPoly).Coefficients),
			ServerPolyCommits: hexPoints(polynomial.NewExponent(serverPoly).Coefficients),
			TargetEncryptions: rss.TargetEncryptions{
				UserEnc:    *userEnc,
				ServerEncs: serverEncs,
			},
		}
	}

	writeJSON(w, rss.RSSRound1Response{TargetIndex: body.TargetIndex, Data: data})
}

// lagrangeContribution implements the server-side lc_server(t) formula from
// spec §4.5's "Server-side subprotocol" contract.
func (s *Server) lagrangeContribution(c curve.Curve, body rss.RSSRound1RequestBody, target int) (curve.Scalar, error) {
	selected := body.NewServersInfo.Selected
	own, err := polynomial.LagrangeCoefficient(c, selected, body.ServerIndex, 0)
	if err != nil {
		return nil, err
	}
	toTarget, err := polynomial.LagrangeCoefficient(c, []int{0, 1}, 0, target)
	if err != nil {
		return nil, err
	}
	if body.ServerSet == "old" && body.OldUserShareIndex != nil {
		middle, err := polynomial.LagrangeCoefficient(c, []int{1, *body.OldUserShareIndex}, 1, 0)
		if err != nil {
			return nil, err
		}
		return own.Mul(middle).Mul(toTarget), nil
	}
	return own.Mul(toTarget), nil
}

func (s *Server) shareForLabel(c curve.Curve, label string) curve.Scalar {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hash.Digest("mockserver-tss-share", []byte(label))
	if existing, ok := s.tssShares[key]; ok {
		return existing
	}
	share, _ := c.RandomScalar(rand.Reader)
	s.tssShares[key] = share
	return share
}

func (s *Server) handleRound2(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/rss_round_2")

	var body rss.RSSRound2RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := curve.ByName(body.KeyType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data := make([]rss.RSSRound2ResponseDatum, len(body.Data))
	for k, entry := range body.Data {
		sum := c.NewScalar()
		for _, enc := range entry.ServerEncs {
			if enc == nil {
				continue
			}
			plaintext, err := ecies.Decrypt(s.priv.Bytes(), enc)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			share, err := c.DecodeScalar(plaintext)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			sum = sum.Add(share)
		}

		encs := make([]*ecies.EncryptedMessage, len(entry.FactorPubkeys))
		for i, fp := range entry.FactorPubkeys {
			factorPoint, err := curve.DecodeHexPoint(curve.Secp256k1{}, fp)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			enc, err := ecies.Encrypt(factorPoint.Bytes(), sum.Bytes())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			encs[i] = enc
		}
		data[k] = rss.RSSRound2ResponseDatum{Encs: encs}
	}

	writeJSON(w, rss.RSSRound2Response{TargetIndex: body.TargetIndex, Data: data})
}

func (s *Server) handlePrivateKey(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/private_key")
	var body struct {
		PrivateKey string `json:"private_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	secp := curve.Secp256k1{}
	priv, err := curve.DecodeHexScalar(secp, body.PrivateKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	s.priv = priv
	s.pub = priv.ActOnBase()
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/public_key")
	s.mu.Lock()
	pub := s.pub
	s.mu.Unlock()
	writeJSON(w, curve.EncodeHexPoint(pub))
}

func (s *Server) handleTSSShare(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/tss_share")
	var body struct {
		Label string `json:"label"`
		Share string `json:"share"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c := curve.Secp256k1{}
	share, err := curve.DecodeHexScalar(c, body.Share)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	s.tssShares[hash.Digest("mockserver-tss-share", []byte(body.Label))] = share
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetNonce(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/get_tss_nonce")
	label := r.URL.Query().Get("label")
	s.mu.Lock()
	nonce := s.tssNonce[label]
	s.mu.Unlock()
	writeJSON(w, map[string]int{"nonce": nonce})
}

func (s *Server) handleSetNonce(w http.ResponseWriter, r *http.Request) {
	s.logRequest("/set_tss_nonce")
	var body struct {
		Label string `json:"label"`
		Nonce int    `json:"nonce"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	s.tssNonce[body.Label] = body.Nonce
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func hexPoints(points []curve.Point) []curve.HexPoint {
	out := make([]curve.HexPoint, len(points))
	for i, p := range points {
		out[i] = curve.EncodeHexPoint(p)
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
