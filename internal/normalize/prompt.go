package normalize

import "fmt"

// DefaultReference is the reference description used when the caller does
// not supply one.
const DefaultReference = "Extract only the building name and transaction type, know that it is in the Philippines. You need to be SURE of your response and strictly follow formats."

// promptTemplate pins the backend to a single-line response in the
// "<Building Name>|<Transaction Type>" grammar. The two verbs are the
// listing content and the reference description.
const promptTemplate = `Your task is to extract two pieces of information (property name, and transaction type) from the content below:

INPUT CONTENT:
%s

Refer to the following reference building description to guide your extraction:
REFERENCE DESCRIPTION: %s

Extract and return the following values, using only what is explicitly stated in the input content:

1. Building Name Extraction
   - Extract the name of the building only if it directly and clearly matches the reference description.
   - Do not infer names based on context, style, or abbreviations.
   - Format as a proper noun (e.g., 'Empire State Building').
   - Do NOT include:
     - Descriptive labels (e.g., 'condo', 'tower') unless they are part of the actual name.
     - Property type, size, location, number of bedrooms, or price.
     - Any abbreviation or short form.

2. Transaction Type Identification
   - Identify whether the content is related to a property for sale, rent, or lease.
   - Valid values: 'sale', 'rent', 'lease', or an empty string ('').
   - Return an empty string if:
     - The transaction type is not explicitly stated.
     - Multiple transaction types are mentioned (e.g., 'for rent or sale').
     - Only vague terms like 'available' are used.
   - Do NOT guess based on implied meaning or surrounding context.

3. Output Format (Strict)
   - Output must be a single line in this exact format: <Building Name>|<Transaction Type>
   - If a value is missing, leave that part blank but preserve the pipe character.
   - Examples:
     - Empire State Building|sale
     - |lease
     - One Central Park|
     - |
   - Do NOT include quotes, extra spaces, explanations, markdown, or punctuation.

4. Invalid Examples (Do Not Output Like This):
   - 'Empire State Building is for sale'
   - 'I think it's for lease at Building B'
   - 'Building C' (missing transaction type, should be: Building C|)
   - 'lease' (missing building, should be: |lease)
   - 'Building D' | 'lease' (no quotes, no extra spacing)`

// BuildPrompt renders the normalization prompt for one listing title.
func BuildPrompt(content, referenceDescription string) string {
	return fmt.Sprintf(promptTemplate, content, referenceDescription)
}
