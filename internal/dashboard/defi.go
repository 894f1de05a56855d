package dashboard

import (
	"context"
	"errors"

	"github.com/web3-frozen/near-dashboard/internal/defi"
)

var errNoDeFiData = errors.New("no protocol data")

func (s *Service) defiPage(ctx context.Context, p *Page) {
	res := s.defiResult(ctx)
	if res.Degraded() {
		err := errNoDeFiData
		if res.DirectoryErr != "" {
			err = errors.New(res.DirectoryErr)
		}
		p.fail("defi", err)
	}
	p.Failures = res.Failures

	v := defi.BuildViews(res, s.opts.ReferenceDEX)
	p.Sections = []Section{
		{Title: "Total Value Locked", Chart: chart(v.ByCategory)},
		{Title: "Total Value Locked by Protocol", Chart: chart(v.ByProtocol)},
		{Title: "Top DeFi Protocols", Ranking: v.TopProtocols},
		{Title: "Top Tokens by Liquidity in DEXs", Ranking: v.TopTokens},
	}
}
