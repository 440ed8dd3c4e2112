package oracle

import (
    "encoding/json"
    "fmt"
    "strings"

    "github.com/local/pdfreorder/internal/pdf"
)

type promptPage struct {
    PageID  int    `json:"page_id"`
    Content string `json:"content"`
}

// buildOrderingPrompt renders the page texts as a JSON array with 1-based
// page ids and wraps them in the analysis instructions. Page content is sent
// in full, without truncation.
func buildOrderingPrompt(pages []pdf.Page) string {
    data := make([]promptPage, 0, len(pages))
    for _, p := range pages {
        data = append(data, promptPage{PageID: p.OriginalIndex + 1, Content: p.Text})
    }
    pagesJSON, _ := json.MarshalIndent(data, "", "  ")

    n := len(pages)
    var b strings.Builder
    fmt.Fprintf(&b, `You are an expert document analyst with deep expertise in legal contracts, loan agreements, and formal document structures.

TASK: Analyze the shuffled pages and determine their correct logical order by understanding the document's natural flow and structure.

CRITICAL: You MUST include ALL %d pages in your response. Every page matters - do not skip any.

PAGES DATA (JSON format):
%s

YOUR ANALYSIS APPROACH:

1. IDENTIFY THE FIRST PAGE (MOST CRITICAL)
   The first page is typically the MOST INTRODUCTORY page with the LEAST detail.

   Priority order for identifying the first page:
   a) Cover/Face Sheet: basic summary info like "Loan Agreement No.", borrower name, loan amount, date - usually minimal text
   b) Title Page: the main title "LOAN AGREEMENT" or "AGREEMENT", parties' names, date
   c) Preamble/Introduction: starts with "THIS AGREEMENT made at..." or "BETWEEN"

   Key indicators of the FIRST page:
   - Shortest/most concise page with summary information
   - Contains reference numbers, basic identifiers
   - Does NOT start mid-sentence or mid-section
   - Does NOT start with "ARTICLE II" or "SECTION 2"

2. IDENTIFY THE DOCUMENT TYPE
   - What kind of document is this? Who are the parties involved? What is the subject matter?

3. FIND STRUCTURAL MARKERS
   - Page numbers: printed page numbers (e.g., "Page 5 of 25", "- 3 -", "p.7")
   - Section numbers: Articles, Sections, Clauses (I, II, III or 1, 2, 3 or 1.1, 1.2)
   - Schedules/Annexures: usually labeled (Schedule A, Exhibit 1, Annexure I)

4. UNDERSTAND DOCUMENT FLOW
   - Beginning: cover pages, title pages, introductions, preambles, "WHEREAS" clauses
   - Definitions: terms are defined early and used throughout
   - Main content: sequential sections building on each other
   - Supporting material: schedules, exhibits, annexures referencing the main content
   - Ending: signatures, execution clauses, witness statements ("IN WITNESS WHEREOF")

5. LOOK FOR LOGICAL CONNECTIONS
   - Forward references: "as defined in Section 3", "pursuant to Article II"
   - Backward references: "as mentioned above", "in accordance with the foregoing"
   - Continuation markers: "(continued)", "continued on next page"

6. RECOGNIZE COMMON PATTERNS
   - Legal documents typically follow: Cover/Summary Sheet -> Title Page -> Introduction -> Definitions -> Terms -> Conditions -> Schedules -> Signatures
   - Numbered sections should be sequential
   - Schedules/Exhibits come after the main body but before signatures
   - Signature pages are always last

7. HANDLE SPECIAL CASES
   - Blank pages: often separators or at the end
   - Tables/Charts: usually part of schedules or financial sections
   - Multi-page sections: keep pages together when they belong to the same section

QUALITY CHECKS (validate your ordering):
- First page check: is the first page truly introductory, with minimal content and basic identifiers?
- Sequential check: do numbered sections follow in order?
- Cross-reference check: "as defined in Section 1" must come after Section 1
- Definition check: are terms defined before they are used extensively?
- Signature check: are signatures at the very end?
- Completeness check: did you include all %d pages?

REQUIREMENTS:
- Include exactly %d page_id numbers
- Each page_id from 1 to %d must appear exactly once
- No skipping, no duplicates
- The FIRST page in your array MUST be the most introductory/summary page, NOT a detailed article or schedule page

RESPONSE FORMAT:
Output ONLY a JSON array of page_id numbers in the correct order.
No explanations, no markdown, no code blocks - just the raw JSON array.

Example: [3, 1, 5, 2, 4]

YOUR RESPONSE (JSON array with all %d pages):
`, n, pagesJSON, n, n, n, n)
    return b.String()
}
