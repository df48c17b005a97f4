package pipeline

import (
	"fmt"
	"strings"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

// enrichmentPrompt rewrites a raw procurement query into a detailed one
// and proposes product-specific comparison attributes. The response must
// be a single JSON object so the normalizer can consume it.
const enrichmentPrompt = `You are an expert in biopharma procurement.

Your job is to rewrite the user query to make it clear, detailed, and suitable for finding vendors or suppliers.

Additionally, you must identify 3-5 key attributes that are critical for comparing this specific SKU/product across different vendors (e.g., storage conditions, purity, grade, thickness, material, etc., depending on the product).

Instructions:
- Expand any abbreviations or jargon (e.g., change "FBS" to "Fetal Bovine Serum")
- Add important details needed for procurement, such as specifications, grades, certification, intended use, and size/packaging, if mentioned; if missing, clearly mark as "open" or "not specified"
- Suggest alternate product names, synonyms, or catalog numbers, if relevant, to help widen the search scope
- Remove overly broad generalities (like "good price") or note them as open criteria
- Do NOT make up any details that aren't in the original query regarding the user's specific requirements, but DO use your domain knowledge to identify standard comparison attributes.

Output MUST be a single valid JSON object with exactly these keys, no markdown, no commentary:
{
  "enriched_query": "the detailed procurement query with each key requirement on its own line",
  "comparison_attributes": [
    {
      "key": "snake_case_key",
      "display_name": "Human Name",
      "description": "what this attribute captures",
      "look_for": ["synonym", "label text seen on vendor pages"]
    }
  ]
}

Only propose attributes specific to this product; generic attributes like price, storage, or certifications are already tracked.`

// researchPrompt drives web-search-backed vendor discovery. The caller
// appends the attribute block for the current run.
const researchPrompt = `You are a domain expert in biopharma procurement working for a large, global biopharma company.

Task:
Given the enriched user query, identify 3-5 *established, global* alternate vendors that supply the product.

PRIORITY VENDOR WEBSITES TO SEARCH:
- Fisher Scientific: https://www.fishersci.com/us/en/home.html
- Sigma-Aldrich (MilliporeSigma): https://www.sigmaaldrich.com/IN/en
- Thermo Fisher Scientific: https://www.thermofisher.com
- VWR/Avantor: https://www.vwr.com
- BD (Becton Dickinson): https://www.bd.com
- Sartorius: https://www.sartorius.com
- Corning: https://www.corning.com

Instructions:
- Output MUST be a valid JSON array of objects. No markdown formatting, no code blocks, just raw JSON.
- CRITICAL: Only include well-established, global vendors. Do NOT include small, local, or unknown distributors unless they are the primary manufacturer for a niche critical product. Large biopharma companies minimize risk by avoiding small/unknown vendors.
- Only include vendors you are confident actually supply the specific product requested. No hallucination.

PRODUCT AVAILABILITY VERIFICATION:
- Before including a vendor, VERIFY that the product is actually available on the vendor's website. Check for "out of stock", "discontinued", "unavailable", "not available in your region" indicators.
- If a product page exists but shows the product is unavailable, DO NOT include it.
- Set "availability_status" to "available", "limited", or "unverified" for each vendor.

INLINE SOURCE CITATIONS:
Every attribute value MUST end with a single source URL in square brackets.
Format: "value [https://exact-source-url.com/page]"
Use the MOST SPECIFIC URL where that exact info was found. Only ONE URL per field, no markdown links. Example: "price": "$125.00 / 100 pack [https://www.vendor.com/product/123]"

For each vendor object, include the following keys:
- "vendor_name": Name of the vendor (no URL needed).
- "region": Region/country if available (no URL needed).
- "product_name": The exact product name as sold.
- "product_description": Product basics with catalog code [source_url].
- "product_url": A direct URL to the product page. MUST be a working URL; this is fetched later for spec extraction. Set to "NA" only when no product page exists.
- "availability_status": "available", "limited", or "unverified".
- "discovery_confidence": "high", "medium", or "low" - how confident you are this vendor supplies the exact product.
- "recommendation_score": A number between 0 and 1 rating this vendor as an alternate supplier.
- "recommendation_reason": One sentence on why this vendor is or is not a strong alternate.
- "concerns": Any risk worth flagging (regional availability, unverified stock, distributor vs manufacturer). Omit or "NA" when none.
- One key per comparison attribute listed below, in snake_case, each value with [source_url]. Prefer "NA" over guessing.

Limit results to the 3-5 most relevant or credible vendors. ACCURACY IS PARAMOUNT. Dig into technical specification tabs, documents, and SDS/COA sections on vendor pages. Ensure the JSON is valid and parseable.`

// researchSystem renders the full discovery system prompt including the
// attribute definitions for this run.
func researchSystem(attrs []model.ComparisonAttribute) string {
	var b strings.Builder
	b.WriteString(researchPrompt)
	b.WriteString("\n\nComparison attributes to capture per vendor:\n")
	b.WriteString(model.FormatAttributesForPrompt(attrs))
	return b.String()
}

// extractionPrompt asks the extraction model to read a fetched product
// page and answer every comparison attribute at once as JSON.
func extractionPrompt(vendorName, markdown string, attrs []model.ComparisonAttribute, charLimit int) string {
	if charLimit > 0 && len(markdown) > charLimit {
		markdown = markdown[:charLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are analyzing product information from a vendor's product page.

Vendor: %s

Product Page Content (Markdown):
---
%s
---

Extract the following attributes from the page content above:
%s

Instructions:
- Answer based ONLY on the information in the product page content above
- Be concise and specific
- For prices, include currency and any associated quantities/units
- For certifications, list all that are mentioned
- If an attribute is not present in the content, set its "value" to "NOT_FOUND"

Output MUST be a single valid JSON object mapping each attribute key to:
{"value": "the extracted value", "source": "the page section or label it came from", "confidence": "high|medium|low"}

No markdown, no commentary, just the JSON object.`,
		vendorName, markdown, model.FormatAttributesForPrompt(attrs))
	return b.String()
}

// notFoundSentinel is the value the extraction model returns for an
// attribute absent from the page.
const notFoundSentinel = "NOT_FOUND"
