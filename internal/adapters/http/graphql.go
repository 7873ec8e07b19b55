package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to the terrain services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	featureSetType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "FeatureSet",
		Description: "Terrain features of a link; every field is null when the profile was degenerate",
		Fields: graphql.Fields{
			"ra":              &graphql.Field{Type: graphql.Float},
			"rq":              &graphql.Field{Type: graphql.Float},
			"rp":              &graphql.Field{Type: graphql.Float},
			"rv":              &graphql.Field{Type: graphql.Float},
			"rz":              &graphql.Field{Type: graphql.Float},
			"rsk":             &graphql.Field{Type: graphql.Float},
			"rku":             &graphql.Field{Type: graphql.Float},
			"deepest_barrier": &graphql.Field{Type: graphql.Float},
			"n_barriers":      &graphql.Field{Type: graphql.Int},
			"absent":          &graphql.Field{Type: graphql.Boolean},
		},
	})

	receiptFeaturesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ReceiptFeatures",
		Fields: graphql.Fields{
			"hash":                &graphql.Field{Type: graphql.String},
			"witness":             &graphql.Field{Type: graphql.String},
			"distance_km":         &graphql.Field{Type: graphql.Float},
			"terrain_computed_at": &graphql.Field{Type: graphql.String},
			"features":            &graphql.Field{Type: featureSetType},
		},
	})

	bearingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bearing",
		Fields: graphql.Fields{
			"bearing_rad": &graphql.Field{Type: graphql.Float},
			"bearing_deg": &graphql.Field{Type: graphql.Float},
		},
	})

	pointArgs := graphql.FieldConfigArgument{
		"originLat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"originLon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"destLat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"destLon":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"originHeight": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
		"destHeight":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"features": &graphql.Field{
				Type:        featureSetType,
				Description: "Terrain features between two points",
				Args:        pointArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Features == nil {
						return nil, errors.New("feature service unavailable")
					}
					f, err := deps.Features.ComputePath(p.Context, domain.PathRequest{
						Origin:            domain.GeoPoint{Lat: p.Args["originLat"].(float64), Lon: p.Args["originLon"].(float64)},
						Destination:       domain.GeoPoint{Lat: p.Args["destLat"].(float64), Lon: p.Args["destLon"].(float64)},
						OriginHeight:      p.Args["originHeight"].(float64),
						DestinationHeight: p.Args["destHeight"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return featureMap(f), nil
				},
			},
			"receiptFeatures": &graphql.Field{
				Type:        receiptFeaturesType,
				Description: "Stored terrain features of a witness receipt",
				Args: graphql.FieldConfigArgument{
					"hash":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"witness": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Receipts == nil {
						return nil, errors.New("receipt service unavailable")
					}
					rec, err := deps.Receipts.GetFeatures(p.Context, domain.ReceiptKey{
						Hash:    p.Args["hash"].(string),
						Witness: p.Args["witness"].(string),
					})
					if err != nil {
						return nil, err
					}
					m := map[string]interface{}{
						"hash":     rec.Hash,
						"witness":  rec.Witness,
						"features": featureMap(rec.Features),
					}
					if rec.DistanceKm != nil {
						m["distance_km"] = *rec.DistanceKm
					}
					if rec.ComputedAt != nil {
						m["terrain_computed_at"] = rec.ComputedAt.Format("2006-01-02T15:04:05Z07:00")
					}
					return m, nil
				},
			},
			"bearing": &graphql.Field{
				Type:        bearingType,
				Description: "Initial great-circle bearing between two points",
				Args: graphql.FieldConfigArgument{
					"lat1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat1, lon1 := p.Args["lat1"].(float64), p.Args["lon1"].(float64)
					lat2, lon2 := p.Args["lat2"].(float64), p.Args["lon2"].(float64)
					return map[string]interface{}{
						"bearing_rad": geospatial.Bearing(lat1, lon1, lat2, lon2),
						"bearing_deg": geospatial.BearingDegrees(lat1, lon1, lat2, lon2),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// featureMap flattens a FeatureSet so absent values resolve to null.
func featureMap(f domain.FeatureSet) map[string]interface{} {
	m := map[string]interface{}{"absent": f.IsAbsent()}
	put := func(name string, v *float64) {
		if v != nil {
			m[name] = *v
		}
	}
	put("ra", f.Ra)
	put("rq", f.Rq)
	put("rp", f.Rp)
	put("rv", f.Rv)
	put("rz", f.Rz)
	put("rsk", f.Rsk)
	put("rku", f.Rku)
	put("deepest_barrier", f.DeepestBarrier)
	if f.NBarriers != nil {
		m["n_barriers"] = *f.NBarriers
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		if result.HasErrors() {
			LoggerFromCtx(c.UserContext()).Warn("graphql query failed", "errors", len(result.Errors))
		}

		return c.JSON(result)
	}
}
