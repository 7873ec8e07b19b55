package telemetry

// Span attribute keys shared by the terrain spans.
const (
	AttrReceiptHash = "receipt.hash"
	AttrWitness     = "receipt.witness"
	AttrDistanceKm  = "path.distance_km"
	AttrSamples     = "profile.samples"
	AttrAbsent      = "features.absent"
)
