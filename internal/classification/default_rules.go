package classification

import "github.com/Veraticus/finbuddy/internal/model"

// DefaultRules returns the built-in keyword rules. Order is priority: the first match wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:   model.CategoryFoodDining,
			Keywords:   []string{"swiggy", "zomato", "food", "restaurant", "cafe", "pizza", "burger"},
			Confidence: 95,
		},
		{
			Category:   model.CategoryTransportation,
			Keywords:   []string{"uber", "ola", "taxi", "bus", "metro", "petrol", "fuel", "transport"},
			Confidence: 95,
		},
		{
			Category:   model.CategoryShopping,
			Keywords:   []string{"amazon", "flipkart", "shopping", "mall", "store", "purchase"},
			Confidence: 90,
		},
		{
			Category:   model.CategoryEntertainment,
			Keywords:   []string{"movie", "cinema", "netflix", "spotify", "entertainment", "game"},
			Confidence: 90,
		},
		{
			Category:   model.CategoryBillsUtilities,
			Keywords:   []string{"electricity", "water", "gas", "internet", "mobile", "bill", "utility"},
			Confidence: 95,
		},
		{
			Category:   model.CategoryHealthcare,
			Keywords:   []string{"hospital", "doctor", "medicine", "pharmacy", "health"},
			Confidence: 90,
		},
		{
			Category:   model.CategoryEducation,
			Keywords:   []string{"school", "college", "course", "book", "education"},
			Confidence: 90,
		},
		{
			Category:   model.CategoryIncome,
			Keywords:   []string{"salary", "income", "bonus", "freelance"},
			Confidence: 95,
		},
	}
}
