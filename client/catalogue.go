package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/api"
	"github.com/sports-festival/festival-registration/fees"
	"github.com/sports-festival/festival-registration/ptr"
	"github.com/sports-festival/festival-registration/slices"
	"github.com/sports-festival/festival-registration/sports"
)

var _ fees.PricingSource = (*Client)(nil)

func (c *Client) GetPricing(ctx context.Context, kind fees.ItemKind) (fees.Table, error) {
	var table fees.Table

	err := c.do(ctx, "GetPricing", http.MethodGet, "/pricing/"+url.PathEscape(string(kind)), nil, &table)
	if err != nil {
		return fees.Table{}, fmt.Errorf("failed to get %s pricing: %w", kind, err)
	}

	return table, nil
}

// QuoteFee prices count items of kind with the API's pricing, falling back
// to the flat fallback rate when pricing cannot be loaded.
func (c *Client) QuoteFee(ctx context.Context, kind fees.ItemKind, count int, fallback *money.Money) fees.Quotation {
	return fees.Quote(ctx, c.logger, c, kind, count, fallback)
}

func (c *Client) GetSport(ctx context.Context, id uuid.UUID) (sports.Sport, error) {
	var sport api.Sport

	err := c.do(ctx, "GetSport", http.MethodGet, "/sports/"+id.String(), nil, &sport)
	if isStatus(err, http.StatusNotFound) {
		return sports.Sport{}, sports.NewSportDoesNotExistsError(fmt.Sprintf("Sport %s does not exist", id), err)
	}
	if err != nil {
		return sports.Sport{}, sports.NewFailedToFetchError("Failed to get sport", err)
	}

	return apiSportToSport(sport), nil
}

func (c *Client) ListSports(ctx context.Context, limit int, cursor *string) (sports.GetSportsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		query.Set("cursor", *cursor)
	}

	path := "/sports"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page api.SportsPage
	err := c.do(ctx, "ListSports", http.MethodGet, path, nil, &page)
	if isStatus(err, http.StatusBadRequest) {
		return sports.GetSportsResponse{}, sports.NewInvalidCursorError("Failed to list sports", err)
	}
	if err != nil {
		return sports.GetSportsResponse{}, sports.NewFailedToFetchError("Failed to list sports", err)
	}

	return sports.GetSportsResponse{
		Data:        slices.Map(page.Data, apiSportToSport),
		Cursor:      page.Cursor,
		HasNextPage: page.HasNextPage,
	}, nil
}

func apiSportToSport(s api.Sport) sports.Sport {
	sport := sports.Sport{
		Name:        s.Name,
		Category:    sports.Category(s.Category),
		AgeGroups:   s.AgeGroups,
		Disciplines: s.Disciplines,
	}
	if s.Id != nil {
		sport.ID = *s.Id
	}
	if s.Version != nil {
		sport.Version = *s.Version
	}
	sport.NumStudents = ptr.Deref(s.NumStudents)
	sport.NumInstitutions = ptr.Deref(s.NumInstitutions)
	return sport
}
