// Package prompt holds every prompt the pipeline sends to a model. Prompts
// are plain builders over string templates so the call sites in the pipeline
// stay free of formatting noise.
package prompt

import (
	"fmt"
	"strings"
)

// Format instructions appended to prompts whose answers must parse as JSON.
const (
	queriesFormatInstructions = "The output should be a markdown code snippet formatted in the following schema, " +
		"including the leading and trailing \"```json\" and \"```\":\n\n```json\n{\n\t\"queries\": List[string] // Should be a list of ONLY ONE SQL queries\n}\n```"

	tableNamesFormatInstructions = "The output should be a markdown code snippet formatted in the following schema, " +
		"including the leading and trailing \"```json\" and \"```\":\n\n```json\n{\n\t\"table_names\": List[string] // Should be a list of table names\n}\n```"
)

type fewShotExample struct {
	Table    string
	Question string
	SQLQuery string
	Reason   string
}

var sqlFewShotExamples = []fewShotExample{
	{
		Table:    "CREATE TABLE Places (PlaceID INT PRIMARY KEY, Location DECIMAL(10, 2), usevec_PlaceDescription TEXT, useembed_PlaceDescription VECTOR(1564));",
		Question: "What are the places near the river banks?",
		SQLQuery: `WITH semantic_search AS (
    SELECT PlaceID, RANK() OVER (ORDER BY useembed_PlaceDescription <=> @embedding) AS rank
    FROM Places
    ORDER BY useembed_PlaceDescription <=> @embedding
    LIMIT @k
),
keyword_search AS (
    SELECT PlaceID, RANK() OVER (ORDER BY ts_rank_cd(to_tsvector('english', usevec_PlaceDescription), plainto_tsquery('english', @query)) DESC) AS rank
    FROM Places
    WHERE to_tsvector('english', usevec_PlaceDescription) @@ plainto_tsquery('english', @query)
    ORDER BY ts_rank_cd(to_tsvector('english', usevec_PlaceDescription), plainto_tsquery('english', @query)) DESC
    LIMIT @k
),
combined AS (
    SELECT
        COALESCE(semantic_search.PlaceID, keyword_search.PlaceID) AS PlaceID,
        COALESCE(1.0 / (@k + semantic_search.rank), 0.0) +
        COALESCE(1.0 / (@k + keyword_search.rank), 0.0) AS score
    FROM semantic_search
    FULL OUTER JOIN keyword_search ON semantic_search.PlaceID = keyword_search.PlaceID
)
SELECT p.PlaceID, p.Location, p.usevec_PlaceDescription
FROM combined c
JOIN Places p ON c.PlaceID = p.PlaceID
ORDER BY c.score DESC
LIMIT @k;`,
		Reason: "No explicit indicator for places near river banks; semantic + keyword fusion helps improve retrieval.",
	},
	{
		Table:    "CREATE TABLE Products (Id INT, ProductName TEXT, Price DECIMAL(10, 2));",
		Question: "Which product has the highest price?",
		SQLQuery: "SELECT Id, ProductName, Price FROM Products ORDER BY Price DESC LIMIT 1;",
		Reason:   "Straightforward SQL to find highest price, no semantic search needed.",
	},
	{
		Table:    "CREATE TABLE Goods (id INT, Name TEXT, Tax DECIMAL(10, 2), usevec_Description TEXT, useembed_Description VECTOR(1564));",
		Question: "What are the products with 5% tax?",
		SQLQuery: "SELECT id, Name, Tax FROM Goods WHERE Tax = 5;",
		Reason:   "Tax column is explicit; semantic search not required.",
	},
}

const sqlGenerationPrefix = `# SYSTEM INSTRUCTIONS
You are a PostgresSQL expert that generates a valid SQL query based on a natural language question and the relevant tables with the schema.

## Instructions:
- DECIDE IF THE QUERY REQUIRES SEMANTIC CALCULATIONS OR STANDARD SQL.
- USE ONLY the <=> function for text similarity searches. Never use LIKE or ILIKE.
- **FOR CONDITIONS BASED ON COLUMNS PREFIXED WITH ` + "`usevec_[column_name]`" + `, ENSURE THE EMBEDDINGS COLUMN ` + "`useembed_[column_name]`" + ` IS USED IN VECTOR SIMILARITY CALCULATIONS.**
- DO NOT READ embeddings columns, ONLY USE THEM for VECTOR SIMILARITY CALCULATIONS.
- use only the keywords **(embedding, query, k) as placeholders** in the SQL query to replace the embedding, search text and k values.
- ALWAYS READ THE **ID AND DESCRIPTION** COLUMNS THAT PROVIDES INFORMATION ABOUT THE FETCHED RESULTS.**
- **ALWAYS ORDER THE FETCHED RESULTS BY THE SIMILARITY SCORE.**

## Examples:`

// SQLGenerationSystem renders the system prompt for SQL generation: the
// instruction prefix followed by the few-shot examples.
func SQLGenerationSystem() string {
	var b strings.Builder
	b.WriteString(sqlGenerationPrefix)
	for _, ex := range sqlFewShotExamples {
		b.WriteString("\n### Example:\n```\n")
		fmt.Fprintf(&b, "Table info: %s\nQuestion: %s\nSQL query: %s\nReason: %s", ex.Table, ex.Question, ex.SQLQuery, ex.Reason)
		b.WriteString("\n```")
	}
	return b.String()
}

const sqlGenerationTemplate = `# SQL Query Generation Task
- Generate the PostgresSQL query based on the table schema given below for the Question.
- If the table contains a column says Description ensure that it is included in the query
- Your task also involves correcting any previously generated SQL query.
- If the previous query is empty, it means this is your first time generating the query.
- CONVERT THE REQUIRED COLUMNS INTO SUITABLE TYPES such as decimal for numeric value operations.

%s


### Previous SQL query:
   %s
### Previous SQL query error:
   %s

### Format Instructions:
   %s

### Question: %s`

// SQLGeneration renders the user prompt for generating or correcting SQL.
// previousQuery and queryError are empty on the first attempt; on a
// correction pass queryError carries the database error text unchanged.
func SQLGeneration(allTables, previousQuery, queryError, userQuery string) string {
	return fmt.Sprintf(sqlGenerationTemplate, allTables, previousQuery, queryError, queriesFormatInstructions, userQuery)
}

const responseCompositionTemplate = `# Task: Response generation from Table
You are the last state of a text-to-SQL system. You have to generate a response based on the user query, generated query results.
Do not use any information other than the user query and the generated query results.

### SQL query results:
%s

### Question: %s`

// ResponseComposition renders the final answer prompt over the rendered
// query results.
func ResponseComposition(queryResults, userQuery string) string {
	return fmt.Sprintf(responseCompositionTemplate, queryResults, userQuery)
}

const coreSubjectTemplate = `You are a helpful system that extracts the **core subject or concept** from a natural language query.
Remove any questioning phrases, specific details (e.g., prices, quantities), and extra qualifiers.
Your goal is to isolate the **main category, topic, or entity group** that reflects the essence of the query. This will be used for semantic (KNN vector) search.

Focus on:
- The central entities or categories mentioned.
- Generalizing specific examples where possible.
- Removing modifiers that do not change the core meaning.

### Examples:
Input: "What is the average CGST price of dairy products like milk, lassi, butter, etc?"
Output: "dairy like milk lassi butter"

Input: "Get me all the information on fruits"
Output: "fruits"

Input: "What are the places near to river banks?"
Output: "places near river banks"

Input: "Could you tell me the best methods to cook pasta, including spaghetti and penne?"
Output: "cook pasta spaghetti and penne"

Input: "What are the products related to Caffeine and also give wooden products?"
Output: "Caffeine products wooden products"


### Now process the following query:
Input: %s
Output:`

// CoreSubject renders the prompt that distills a question into the phrase
// used for semantic search.
func CoreSubject(userQuery string) string {
	return fmt.Sprintf(coreSubjectTemplate, userQuery)
}

const tableSelectionTemplate = `# SYSTEM INSTRUCTIONS
You are a part of Text-to-SQL system. You will be given a list of tables and their descriptions.
Your task is to analyze a natural language question and identify the relevant tables.
The selected tables will be used in the next step to generate the SQL query.
Focus only on identifying tables that are necessary and directly related to the question.

### Tables with descriptions:
%s

### Format Instructions:
%s

### Question: %s`

// TableSelection renders the prompt that narrows the catalog down to the
// tables relevant to the question.
func TableSelection(tableDescriptions, userQuery string) string {
	return fmt.Sprintf(tableSelectionTemplate, tableDescriptions, tableNamesFormatInstructions, userQuery)
}

const tableDescriptionTemplate = `# SYSTEM INSTRUCTIONS
You are the first state of a text-to-SQL system. You have to generate a description for the table.
Generate a description based on the table schema and sample rows. that will be later used to figure out
which tables to use in the SQL query. **Ignore any vector representing columns for now.**

### Table Name:
%s

%s

### Output Instructions:
- **Output must ONLY be a text description of the table with no other explanation.**`

// TableDescription renders the ingest-time prompt that summarizes one table
// from its schema and sample rows.
func TableDescription(tableName, tableSample string) string {
	return fmt.Sprintf(tableDescriptionTemplate, tableName, tableSample)
}
