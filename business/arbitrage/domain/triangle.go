package domain

// PairRef is the minimal pair shape the cycle search needs.
type PairRef struct {
	Symbol string
	Base   string
	Quote  string
}

// Leg is one directed conversion in a triangular cycle. SellBase means the
// leg sells the pair's base currency at the bid; otherwise it buys base at
// the ask (rate = 1/ask).
type Leg struct {
	PairSymbol string
	From       string
	To         string
	SellBase   bool
}

// Triangle is a 3-leg conversion cycle within a single venue that starts and
// ends in the same currency.
type Triangle struct {
	Legs [3]Leg
}

// Currencies returns the cycle as From currencies plus the closing currency.
func (t Triangle) Currencies() [4]string {
	return [4]string{t.Legs[0].From, t.Legs[1].From, t.Legs[2].From, t.Legs[2].To}
}

// String renders the cycle like "JPY->BTC->ETH->JPY".
func (t Triangle) String() string {
	c := t.Currencies()
	return c[0] + "->" + c[1] + "->" + c[2] + "->" + c[3]
}

// FindTriangles enumerates every 3-leg cycle expressible with the given
// pairs. The search is a fixed-depth walk over the small static pair set,
// never a general cycle enumeration. Rotations of the same directed cycle
// are deduplicated by anchoring on the lexicographically smallest currency;
// the two traversal directions are distinct cycles because their rates
// differ.
func FindTriangles(pairs []PairRef) []Triangle {
	type edge struct {
		pair     string
		to       string
		sellBase bool
	}

	edges := make(map[string][]edge)
	for _, p := range pairs {
		edges[p.Base] = append(edges[p.Base], edge{pair: p.Symbol, to: p.Quote, sellBase: true})
		edges[p.Quote] = append(edges[p.Quote], edge{pair: p.Symbol, to: p.Base, sellBase: false})
	}

	var triangles []Triangle
	for start, firstEdges := range edges {
		for _, e1 := range firstEdges {
			if e1.to == start {
				continue
			}
			for _, e2 := range edges[e1.to] {
				if e2.to == start || e2.to == e1.to {
					continue
				}
				for _, e3 := range edges[e2.to] {
					if e3.to != start {
						continue
					}
					// Anchor on the smallest currency to drop rotations.
					if start > e1.to || start > e2.to {
						continue
					}
					triangles = append(triangles, Triangle{Legs: [3]Leg{
						{PairSymbol: e1.pair, From: start, To: e1.to, SellBase: e1.sellBase},
						{PairSymbol: e2.pair, From: e1.to, To: e2.to, SellBase: e2.sellBase},
						{PairSymbol: e3.pair, From: e2.to, To: start, SellBase: e3.sellBase},
					}})
				}
			}
		}
	}
	return triangles
}
