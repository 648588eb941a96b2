package llm

// Prompt templates for the two OpenRouter collaborators. Placeholders
// are filled with fmt.Sprintf; catalog listings are truncated upstream
// to keep prompts within the model context.

const intentPrompt = `You are a query parser for a drug formulary lookup service.
Parse the user query into a JSON object with exactly these keys:

- "query_type": one of "drug_status", "alternatives", "list_filter"
  - "drug_status": the user asks about one specific drug's coverage or status
  - "alternatives": the user asks for substitutes or alternatives to a specific drug
  - "list_filter": the user asks for a list of drugs matching criteria
- "drug_name": the drug name mentioned in the query, or null if none
- "filters": an object that may contain:
  - "drug_status": "preferred" or "non_preferred"
  - "pa_mnd_required": "yes" or "no"
  - "category": a therapeutic category
  - "hcpcs": an HCPCS billing code
  - "manufacturer": a manufacturer name

Known drug names (sample): %s
Known categories: %s

User query: %s

Respond with ONLY the JSON object, no explanation.`

const answerPrompt = `You are an assistant for a drug formulary lookup service.
Answer the user's question using ONLY the results below. Never mention a
drug that does not appear in the results. Be concise and factual. Use
plain language a clinic staff member would understand.

User query: %s
Query type: %s

Results:
%s

Answer:`
