package extractor

import "fmt"

// Example is a reference scorebook paired with its ground-truth tallies.
type Example struct {
	ImageURL   string `mapstructure:"image_url" json:"image_url" validate:"required,url"`
	Annotation string `mapstructure:"annotation" json:"annotation" validate:"required"`
}

func (e Example) heading(n int) string {
	return fmt.Sprintf("EXAMPLE GAME %d - This scorebook shows the following statistics by row:", n)
}

// DefaultExamples are the three annotated games shipped with the product.
var DefaultExamples = []Example{
	{
		ImageURL: "https://blob.v0.dev/OYcoA.jpeg",
		Annotation: "Row 1: 4 PA, 4 AB, 1 H, 1 R, 0 BB | Row 2: 4 PA, 4 AB, 2 H, 2 R, 0 BB | " +
			"Row 3: 4 PA, 4 AB, 3 H, 1 3B, 2 R, 0 BB | Row 4: 4 PA, 4 AB, 3 H, 1 R, 0 BB | " +
			"Row 5: 4 PA, 4 AB, 1 H, 0 R, 0 BB | Row 6: 4 PA, 4 AB, 3 H, 2 R, 0 BB | " +
			"Row 7: 4 PA, 4 AB, 4 H, 0 R, 0 BB | Row 8: 4 PA, 4 AB, 2 H, 0 R, 0 BB | " +
			"Row 9: 4 PA, 4 AB, 2 H, 1 2B, 0 R, 0 BB | Row 10: 3 PA, 3 AB, 3 H, 1 2B, 1 R, 0 BB",
	},
	{
		ImageURL: "https://blob.v0.dev/2WIgt.jpeg",
		Annotation: "Row 1: 5 PA, 4 AB, 4 H, 1 2B, 3 R, 1 BB | Row 2: 5 PA, 5 AB, 4 H, 3 2B, 2 R, 0 BB | " +
			"Row 3: 5 PA, 4 AB, 2 H, 0 R, 1 BB | Row 4: 4 PA, 3 AB, 1 H, 1 SAC, 1 R, 0 BB | " +
			"Row 5: 4 PA, 4 AB, 2 H, 1 2B, 1 R, 0 BB | Row 6: 4 PA, 4 AB, 2 H, 1 R, 0 BB | " +
			"Row 7: 4 PA, 4 AB, 2 H, 0 R, 0 BB | Row 8: 4 PA, 4 AB, 3 H, 3 R, 0 BB | " +
			"Row 9: 4 PA, 4 AB, 2 H, 1 2B, 2 R, 0 BB | Row 10: 4 PA, 4 AB, 4 H, 1 2B, 3 R, 0 BB",
	},
	{
		ImageURL: "https://blob.v0.dev/Ny8wq.jpeg",
		Annotation: "Row 1: 4 PA, 3 AB, 3 H, 2 R, 1 BB | Row 2: 4 PA, 4 AB, 3 H, 3 R, 1 BB | " +
			"Row 3: 4 PA, 4 AB, 3 H, 3 R, 1 HR, 0 BB | Row 4: 4 PA, 4 AB, 4 H, 4 R, 0 BB | " +
			"Row 5: 4 PA, 4 AB, 4 H, 2 R, 0 BB | Row 6: 4 PA, 4 AB, 4 H, 1 R, 0 BB | " +
			"Row 7: 4 PA, 4 AB, 2 H, 0 R, 0 BB | Row 8: 3 PA, 3 AB, 1 H, 1 R, 0 BB | " +
			"Row 9: 3 PA, 3 AB, 1 H, 1 2B, 1 R, 0 BB | Row 10: 3 PA, 3 AB, 3 H, 1 2B, 1 R, 0 BB | " +
			"Row 11: 3 PA, 3 AB, 1 H, 0 R, 0 BB | Row 12: 3 PA, 3 AB, 2 H, 2 R, 0 BB",
	},
}
