package rss

import (
	"fmt"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/polynomial"
)

// aggregatedCommitments holds the summed master and server polynomial
// commitment vectors for a single target index, after aggregating every
// co-dealer's Round 1 contribution.
type aggregatedCommitments struct {
	Master *polynomial.Exponent
	Server *polynomial.Exponent
}

// aggregateCommitments sums the master and server commitment vectors from
// every co-dealer response for one target index, and checks their shape.
// masterLen and serverLen are the expected vector lengths (2 and T
// respectively, per spec).
func aggregateCommitments(c curve.Curve, responses []RSSRound1ResponseData, masterLen, serverLen int) (*aggregatedCommitments, error) {
	masterVectors := make([]*polynomial.Exponent, len(responses))
	serverVectors := make([]*polynomial.Exponent, len(responses))

	for i, resp := range responses {
		if len(resp.MasterPolyCommits) != masterLen {
			return nil, fmt.Errorf("%w: master_poly_commits has length %d, want %d", ErrCommitShape, len(resp.MasterPolyCommits), masterLen)
		}
		if len(resp.ServerPolyCommits) != serverLen {
			return nil, fmt.Errorf("%w: server_poly_commits has length %d, want %d", ErrCommitShape, len(resp.ServerPolyCommits), serverLen)
		}

		mv, err := decodeExponent(c, resp.MasterPolyCommits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCommitShape, err)
		}
		sv, err := decodeExponent(c, resp.ServerPolyCommits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCommitShape, err)
		}
		masterVectors[i] = mv
		serverVectors[i] = sv
	}

	master, err := polynomial.Sum(masterVectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitShape, err)
	}
	server, err := polynomial.Sum(serverVectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommitShape, err)
	}

	return &aggregatedCommitments{Master: master, Server: server}, nil
}

func decodeExponent(c curve.Curve, hexPoints []curve.HexPoint) (*polynomial.Exponent, error) {
	coeffs := make([]curve.Point, len(hexPoints))
	for i, hp := range hexPoints {
		p, err := curve.DecodeHexPoint(c, hp)
		if err != nil {
			return nil, fmt.Errorf("commitment coefficient %d: %w", i, err)
		}
		coeffs[i] = p
	}
	return &polynomial.Exponent{Coefficients: coeffs}, nil
}

// verifyTSSPubKey checks eta1*dkgNewPub + eta2*mc[0] == tssPubKey, per
// spec §4.4 step 3.
func verifyTSSPubKey(c curve.Curve, agg *aggregatedCommitments, dkgNewPub, tssPubKey curve.Point, target int) error {
	eta1, err := polynomial.LagrangeCoefficient(c, []int{1, target}, 1, 0)
	if err != nil {
		return fmt.Errorf("%w: failed to compute eta1: %v", ErrCommitConsistency, err)
	}
	eta2, err := polynomial.LagrangeCoefficient(c, []int{1, target}, target, 0)
	if err != nil {
		return fmt.Errorf("%w: failed to compute eta2: %v", ErrCommitConsistency, err)
	}

	lhs := eta1.Act(dkgNewPub).Add(eta2.Act(agg.Master.Constant()))
	if !lhs.Equal(tssPubKey) {
		return fmt.Errorf("%w: eta1*dkgNewPub + eta2*mc[0] != tssPubKey", ErrCommitConsistency)
	}
	return nil
}

// verifyMasterServerLink checks mc[0] + mc[1] == sc[0], per spec §4.4 step 4.
func verifyMasterServerLink(agg *aggregatedCommitments) error {
	mc0 := agg.Master.Coefficients[0]
	mc1 := agg.Master.Coefficients[1]
	sc0 := agg.Server.Coefficients[0]
	if !mc0.Add(mc1).Equal(sc0) {
		return fmt.Errorf("%w: mc[0] + mc[1] != sc[0]", ErrCommitConsistency)
	}
	return nil
}
