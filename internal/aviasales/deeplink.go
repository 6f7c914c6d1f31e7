package aviasales

import (
	"net/url"
	"strconv"
	"strings"
)

// OfferLink returns the actionable URL for an offer: the offer's own link
// anchored to the search host when present, else a synthesized search-form
// deeplink for the query.
func (c *Client) OfferLink(o Offer, q Query) string {
	if strings.TrimSpace(o.Link) != "" {
		return strings.TrimRight(c.cfg.SearchURL, "/") + "/" + strings.TrimLeft(o.Link, "/")
	}
	return c.SearchLink(q)
}

// SearchLink builds a deterministic Aviasales search-form URL for one
// departure day (1 adult, economy).
func (c *Client) SearchLink(q Query) string {
	params := url.Values{}
	params.Set("origin_iata", q.Origin)
	params.Set("destination_iata", q.Destination)
	params.Set("depart_date", q.DepartDate)
	params.Set("adults", "1")
	params.Set("children", "0")
	params.Set("infants", "0")
	params.Set("trip_class", "0")
	params.Set("one_way", strconv.FormatBool(q.OneWay))
	params.Set("locale", c.cfg.Market)
	return strings.TrimRight(c.cfg.SearchURL, "/") + "/flights/?" + params.Encode()
}
