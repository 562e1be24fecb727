package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdocs/invoice-matcher/internal/entity"
)

func item(desc string, amount float64) entity.LineItem {
	return entity.LineItem{Description: desc, Quantity: 1, Amount: amount}
}

func TestMatchItems(t *testing.T) {
	t.Run("each extracted item gets its best reference", func(t *testing.T) {
		extracted := []entity.LineItem{
			item("Ocean Freight", 1000),
			item("Customs Clearance", 150),
		}
		reference := []entity.LineItem{
			item("Customs Clearance Fee", 150),
			item("Ocean Freight Charges", 1000),
		}

		got := MatchItems(extracted, reference)
		require.Len(t, got, 2)

		require.NotNil(t, got[0].BestMatch)
		assert.Equal(t, "Ocean Freight Charges", got[0].BestMatch.Description)
		require.NotNil(t, got[1].BestMatch)
		assert.Equal(t, "Customs Clearance Fee", got[1].BestMatch.Description)
	})

	t.Run("results preserve input order", func(t *testing.T) {
		extracted := []entity.LineItem{item("B Fee", 1), item("A Fee", 2)}
		got := MatchItems(extracted, []entity.LineItem{item("A Fee", 2)})
		require.Len(t, got, 2)
		assert.Equal(t, "B Fee", got[0].SourceItem.Description)
		assert.Equal(t, "A Fee", got[1].SourceItem.Description)
	})

	t.Run("score ties break toward the earliest reference", func(t *testing.T) {
		reference := []entity.LineItem{
			item("Handling", 10),
			item("Handling", 20),
		}
		got := MatchItems([]entity.LineItem{item("Handling", 10)}, reference)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].BestMatch)
		assert.Equal(t, 100, got[0].SimilarityScore)
		assert.Equal(t, float64(10), got[0].BestMatch.Amount)
	})

	t.Run("empty reference yields nil matches", func(t *testing.T) {
		got := MatchItems([]entity.LineItem{item("Ocean Freight", 1000)}, nil)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].BestMatch)
		assert.Zero(t, got[0].SimilarityScore)
	})

	t.Run("empty extracted yields empty result", func(t *testing.T) {
		got := MatchItems(nil, []entity.LineItem{item("Ocean Freight", 1000)})
		assert.Empty(t, got)
	})

	t.Run("two extracted items may claim one reference", func(t *testing.T) {
		reference := []entity.LineItem{item("Documentation Fee", 75)}
		got := MatchItems([]entity.LineItem{
			item("Documentation Fee", 75),
			item("Doc Fee", 75),
		}, reference)
		require.Len(t, got, 2)
		require.NotNil(t, got[0].BestMatch)
		require.NotNil(t, got[1].BestMatch)
		assert.Equal(t, got[0].BestMatch.Description, got[1].BestMatch.Description)
	})

	t.Run("candidates do not alias the reference slice", func(t *testing.T) {
		reference := []entity.LineItem{item("Ocean Freight", 1000)}
		got := MatchItems([]entity.LineItem{item("Ocean Freight", 1000)}, reference)
		require.Len(t, got, 1)
		reference[0].Amount = 9999
		assert.Equal(t, float64(1000), got[0].BestMatch.Amount)
	})
}
