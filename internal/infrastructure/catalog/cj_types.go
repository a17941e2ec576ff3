package catalog

import "strings"

// cjEnvelope is the common CJ Dropshipping API response wrapper
type cjEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// cjAuthResponse is returned by /authentication/getAccessToken
type cjAuthResponse struct {
	cjEnvelope
	Data struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
}

// cjProductListResponse is returned by /product/list
type cjProductListResponse struct {
	cjEnvelope
	Data struct {
		PageNum  int         `json:"pageNum"`
		PageSize int         `json:"pageSize"`
		Total    int         `json:"total"`
		List     []cjProduct `json:"list"`
	} `json:"data"`
}

// cjProduct is a single product entry from /product/list. SellPrice is a
// decimal string in USD.
type cjProduct struct {
	PID           string `json:"pid"`
	ProductNameEn string `json:"productNameEn"`
	ProductImage  string `json:"productImage"`
	SellPrice     string `json:"sellPrice"`
	CategoryName  string `json:"categoryName"`
}

// nicheKeywords maps product-name keywords to storefront niches
var nicheKeywords = []struct {
	niche    string
	keywords []string
}{
	{"Electronics", []string{"earbuds", "headphone", "speaker", "audio", "watch", "smart", "tracker", "bluetooth", "charger"}},
	{"Sports & Outdoors", []string{"yoga", "fitness", "exercise", "gym", "sports"}},
	{"Beauty", []string{"beauty", "skin", "makeup", "cosmetic"}},
	{"Fashion", []string{"bag", "wallet", "fashion", "clothes", "shoes"}},
	{"Home & Garden", []string{"home", "kitchen", "decor", "furniture"}},
	{"Pet Supplies", []string{"pet", "dog", "cat"}},
	{"Baby Products", []string{"baby", "kids", "children", "toy"}},
}

// categorize buckets a product into a niche by name keywords
func categorize(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range nicheKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.niche
			}
		}
	}
	return "Electronics"
}
