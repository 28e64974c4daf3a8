package sqlstore

// DBQuery is a named SQL statement.
type DBQuery struct {
	// ID identifies the query in logs and errors.
	ID string `json:"id"`
	// Query is the SQL text.
	Query string `json:"query"`
}

var (
	queryCreateTable = DBQuery{
		ID: "ASQ-USER_APIS-00",
		Query: "CREATE TABLE IF NOT EXISTS USER_APIS (" +
			"USER_ID VARCHAR(255) NOT NULL, " +
			"API_NAME VARCHAR(255) NOT NULL, " +
			"NAME VARCHAR(255) NOT NULL, " +
			"RECORD TEXT NOT NULL, " +
			"UPDATED_AT VARCHAR(64) NOT NULL, " +
			"PRIMARY KEY (USER_ID, API_NAME))",
	}

	queryUpsertRecord = DBQuery{
		ID: "ASQ-USER_APIS-01",
		Query: "INSERT INTO USER_APIS (USER_ID, API_NAME, NAME, RECORD, UPDATED_AT) VALUES ($1, $2, $3, $4, $5) " +
			"ON CONFLICT (USER_ID, API_NAME) DO UPDATE SET NAME = excluded.NAME, RECORD = excluded.RECORD, " +
			"UPDATED_AT = excluded.UPDATED_AT",
	}

	queryGetRecord = DBQuery{
		ID:    "ASQ-USER_APIS-02",
		Query: "SELECT RECORD FROM USER_APIS WHERE USER_ID = $1 AND API_NAME = $2",
	}

	queryDeleteRecord = DBQuery{
		ID:    "ASQ-USER_APIS-03",
		Query: "DELETE FROM USER_APIS WHERE USER_ID = $1 AND API_NAME = $2",
	}

	queryCountUserRecords = DBQuery{
		ID:    "ASQ-USER_APIS-04",
		Query: "SELECT COUNT(*) FROM USER_APIS WHERE USER_ID = $1",
	}

	queryListUsers = DBQuery{
		ID:    "ASQ-USER_APIS-05",
		Query: "SELECT DISTINCT USER_ID FROM USER_APIS ORDER BY USER_ID",
	}

	queryListAPIs = DBQuery{
		ID:    "ASQ-USER_APIS-06",
		Query: "SELECT API_NAME FROM USER_APIS WHERE USER_ID = $1 ORDER BY API_NAME",
	}
)
