package payments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/internal/checkout/helpers"
)

const (
	metadataUserID = "user_id"
	// metadataItems is the single-value key written by older sessions.
	metadataItems       = "items"
	metadataItemsPrefix = "items_"

	// Stripe allows 50 metadata keys of at most 500 characters each.
	maxMetadataValue = 500
	maxMetadataKeys  = 50
	maxItemChunks    = maxMetadataKeys - 1
)

// encodeLines packs lines as "id:qty,id:qty" split over items_0..items_n so
// the session itself records everything that was charged.
func encodeLines(lines []helpers.Line) (map[string]string, error) {
	var chunks []string
	var current strings.Builder
	for _, line := range lines {
		part := fmt.Sprintf("%s:%d", line.ProductID, line.Quantity)
		if current.Len() > 0 && current.Len()+1+len(part) > maxMetadataValue {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(',')
		}
		current.WriteString(part)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) > maxItemChunks {
		return nil, fmt.Errorf("%d distinct items do not fit in one checkout session", len(lines))
	}

	out := make(map[string]string, len(chunks))
	for i, chunk := range chunks {
		out[metadataItemsPrefix+strconv.Itoa(i)] = chunk
	}
	return out, nil
}

// decodeSessionLines reads the lines recorded on a session, chunked or legacy.
func decodeSessionLines(metadata map[string]string) ([]helpers.Line, error) {
	if legacy, ok := metadata[metadataItems]; ok {
		return decodeLines(legacy)
	}
	var lines []helpers.Line
	for i := 0; i < maxItemChunks; i++ {
		chunk, ok := metadata[metadataItemsPrefix+strconv.Itoa(i)]
		if !ok {
			break
		}
		decoded, err := decodeLines(chunk)
		if err != nil {
			return nil, err
		}
		lines = append(lines, decoded...)
	}
	return lines, nil
}

func decodeLines(value string) ([]helpers.Line, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var lines []helpers.Line
	for _, part := range strings.Split(value, ",") {
		idPart, qtyPart, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed item %q", part)
		}
		id, err := uuid.Parse(idPart)
		if err != nil {
			return nil, fmt.Errorf("malformed item id %q: %w", idPart, err)
		}
		qty, err := strconv.Atoi(qtyPart)
		if err != nil {
			return nil, fmt.Errorf("malformed item quantity %q: %w", qtyPart, err)
		}
		lines = append(lines, helpers.Line{ProductID: id, Quantity: qty})
	}
	return lines, nil
}

// sameLines reports whether two merged line sets hold the same quantities.
func sameLines(a, b []helpers.Line) bool {
	if len(a) != len(b) {
		return false
	}
	want := make(map[uuid.UUID]int, len(a))
	for _, line := range a {
		want[line.ProductID] = line.Quantity
	}
	for _, line := range b {
		if qty, ok := want[line.ProductID]; !ok || qty != line.Quantity {
			return false
		}
	}
	return true
}
