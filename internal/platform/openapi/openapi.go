// Package openapi serves the hand-maintained OpenAPI 3.1 description of the
// HTTP API and a Scalar reference page that renders it.
package openapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	SpecPath = "/api/swagger"
	DocsPath = "/docs"
)

// Generator builds the OpenAPI document.
type Generator struct {
	version     string
	defaultHost string
}

func NewGenerator(version, defaultHost string) *Generator {
	if defaultHost == "" {
		defaultHost = "localhost:3001"
	}
	return &Generator{version: version, defaultHost: defaultHost}
}

const description = "REST API for the Virtual Clinic: multi-turn conversations with LLM-based simulated patient agents powered by Synthea-generated electronic health records.\n\n" +
	"## Workflow\n" +
	"1. **List patients** via `GET /api/patients`\n" +
	"2. **Inspect a patient** via `GET /api/patients/{id}`\n" +
	"3. **Start a conversation** via `POST /api/conversations` with a patient ID and task type\n" +
	"4. **Interview the patient** via `POST /api/conversations/{id}/messages`\n" +
	"5. **Review history** via `GET /api/conversations/{id}`\n\n" +
	"## Task Types\n" +
	"- **diagnosis**: interview the patient to propose a diagnosis\n" +
	"- **treatment**: interview the patient to predict the treatment plan\n" +
	"- **event**: interview the patient to estimate the probability of a clinical event\n\n" +
	"## Authentication\n" +
	"Send `Authorization: Bearer <token>` with an HS256 JWT. `/api/patients` requires `app_metadata.role` = `admin`."

// GenerateSpec produces the OpenAPI 3.1 document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.1.0",
		"info": map[string]interface{}{
			"title":       "Virtual Clinic API",
			"version":     g.version,
			"description": description,
		},
		"servers": []map[string]interface{}{
			{
				"url": "{protocol}://{host}",
				"variables": map[string]interface{}{
					"protocol": map[string]interface{}{"default": "http", "enum": []string{"http", "https"}},
					"host":     map[string]interface{}{"default": g.defaultHost},
				},
			},
		},
		"security": []map[string][]string{{"bearerAuth": {}}},
		"paths":    g.paths(),
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]interface{}{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
			"schemas": componentSchemas(),
		},
		"tags": []map[string]string{
			{"name": "System", "description": "System health and status endpoints"},
			{"name": "Patients", "description": "Browse synthetic patients and their electronic health records"},
			{"name": "Conversations", "description": "Multi-turn conversations with simulated patient agents"},
		},
	}
}

func (g *Generator) paths() map[string]interface{} {
	return map[string]interface{}{
		"/api/health": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"System"},
				"summary":     "Health check",
				"description": "Reports API and database health. The database probe times out after 5 seconds.",
				"operationId": "healthCheck",
				"security":    []interface{}{},
				"responses": map[string]interface{}{
					"200": jsonResponse("API and database are healthy", ref("Health")),
					"503": jsonResponse("Database unreachable", ref("Health")),
				},
			},
		},
		"/api/patients": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Patients"},
				"summary":     "List patients",
				"description": "Returns a paginated list of synthetic patients with basic demographics. Admin only.",
				"operationId": "listPatients",
				"parameters":  paginationParams(),
				"responses": withAuthErrors(map[string]interface{}{
					"200": jsonResponse("Paginated list of patients", page(ref("PatientSummary"))),
				}, true),
			},
		},
		"/api/patients/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Patients"},
				"summary":     "Get patient details",
				"description": "Returns a patient's profile with summarized EHR data. Admin only.",
				"operationId": "getPatient",
				"parameters":  []map[string]interface{}{uuidPathParam("Patient UUID")},
				"responses": withAuthErrors(map[string]interface{}{
					"200": jsonResponse("Full patient profile with EHR summary", envelope(ref("PatientDetail"))),
					"400": jsonResponse("Invalid patient id", ref("Error")),
					"404": jsonResponse("Patient not found", ref("Error")),
				}, true),
			},
		},
		"/api/conversations": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Conversations"},
				"summary":     "List conversations",
				"description": "Returns conversations newest first, optionally filtered by patient and task type.",
				"operationId": "listConversations",
				"parameters": append(paginationParams(),
					map[string]interface{}{
						"name": "patientId", "in": "query", "description": "Filter by patient UUID",
						"schema": map[string]interface{}{"type": "string", "format": "uuid"},
					},
					map[string]interface{}{
						"name": "taskType", "in": "query", "description": "Filter by task type; unknown values are ignored",
						"schema": ref("TaskType"),
					},
				),
				"responses": withAuthErrors(map[string]interface{}{
					"200": jsonResponse("Paginated list of conversations", page(ref("ConversationSummary"))),
					"400": jsonResponse("Invalid patientId filter", ref("Error")),
				}, false),
			},
			"post": map[string]interface{}{
				"tags":        []string{"Conversations"},
				"summary":     "Create conversation",
				"description": "Starts a new conversation with a simulated patient.",
				"operationId": "createConversation",
				"requestBody": jsonBody(ref("CreateConversationRequest")),
				"responses": withAuthErrors(map[string]interface{}{
					"201": jsonResponse("Conversation created", envelope(ref("CreatedConversation"))),
					"400": jsonResponse("Validation error", ref("Error")),
					"404": jsonResponse("Patient not found", ref("Error")),
				}, false),
			},
		},
		"/api/conversations/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"Conversations"},
				"summary":     "Get conversation",
				"description": "Returns a conversation with its full message history, oldest first.",
				"operationId": "getConversation",
				"parameters":  []map[string]interface{}{uuidPathParam("Conversation UUID")},
				"responses": withAuthErrors(map[string]interface{}{
					"200": jsonResponse("Conversation with messages", envelope(ref("ConversationWithMessages"))),
					"404": jsonResponse("Conversation not found", ref("Error")),
				}, false),
			},
		},
		"/api/conversations/{id}/messages": map[string]interface{}{
			"post": map[string]interface{}{
				"tags":        []string{"Conversations"},
				"summary":     "Send message",
				"description": "Sends a message to the simulated patient and returns the reply. LLM responses can take several seconds.",
				"operationId": "sendMessage",
				"parameters":  []map[string]interface{}{uuidPathParam("Conversation UUID")},
				"requestBody": jsonBody(ref("SendMessageRequest")),
				"responses": withAuthErrors(map[string]interface{}{
					"200": jsonResponse("Simulated patient reply", envelope(ref("AgentReply"))),
					"400": jsonResponse("Validation error", ref("Error")),
					"404": jsonResponse("Conversation or patient not found", ref("Error")),
					"500": jsonResponse("LLM or database failure", ref("Error")),
				}, false),
			},
		},
		"/api/swagger": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"System"},
				"summary":     "OpenAPI document",
				"operationId": "openapiSpec",
				"security":    []interface{}{},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "This document"},
				},
			},
		},
	}
}

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func envelope(schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"data": schema},
	}
}

func page(item map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"data":       map[string]interface{}{"type": "array", "items": item},
			"pagination": ref("Pagination"),
		},
	}
}

func jsonResponse(desc string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": desc,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func jsonBody(schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"required": true,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func withAuthErrors(responses map[string]interface{}, admin bool) map[string]interface{} {
	responses["401"] = jsonResponse("Missing or invalid bearer token", ref("Error"))
	if admin {
		responses["403"] = jsonResponse("Admin role required", ref("Error"))
	}
	return responses
}

func paginationParams() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name": "page", "in": "query", "description": "Page number",
			"schema": map[string]interface{}{"type": "integer", "default": 1, "minimum": 1},
		},
		{
			"name": "limit", "in": "query", "description": "Items per page",
			"schema": map[string]interface{}{"type": "integer", "default": 20, "minimum": 1, "maximum": 100},
		},
	}
}

func uuidPathParam(desc string) map[string]interface{} {
	return map[string]interface{}{
		"name": "id", "in": "path", "required": true, "description": desc,
		"schema": map[string]interface{}{"type": "string", "format": "uuid"},
	}
}

func str() map[string]interface{} { return map[string]interface{}{"type": "string"} }

func nullable(typ string) map[string]interface{} {
	return map[string]interface{}{"type": []string{typ, "null"}}
}

func formatted(format string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "format": format}
}

func object(required []string, props map[string]interface{}) map[string]interface{} {
	o := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func arrayOf(item map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": item}
}

func componentSchemas() map[string]interface{} {
	return map[string]interface{}{
		"TaskType": map[string]interface{}{"type": "string", "enum": []string{"diagnosis", "treatment", "event"}},
		"Role":     map[string]interface{}{"type": "string", "enum": []string{"system", "user", "assistant"}},
		"Health": object([]string{"status", "service", "timestamp", "database"}, map[string]interface{}{
			"status":      map[string]interface{}{"type": "string", "enum": []string{"ok", "degraded"}},
			"service":     str(),
			"timestamp":   formatted("date-time"),
			"database":    map[string]interface{}{"type": "string", "enum": []string{"connected", "disconnected"}},
			"dbLatencyMs": map[string]interface{}{"type": "integer"},
			"error":       str(),
		}),
		"PatientSummary": object([]string{"id", "first", "last", "birthDate", "gender"}, map[string]interface{}{
			"id":        formatted("uuid"),
			"first":     str(),
			"last":      str(),
			"birthDate": formatted("date"),
			"deathDate": nullable("string"),
			"gender":    str(),
			"race":      nullable("string"),
			"ethnicity": nullable("string"),
			"city":      nullable("string"),
			"state":     nullable("string"),
		}),
		"Patient": object([]string{"id", "first", "last", "birthDate", "gender", "ssn"}, map[string]interface{}{
			"id":                 formatted("uuid"),
			"birthDate":          formatted("date"),
			"deathDate":          nullable("string"),
			"ssn":                str(),
			"drivers":            nullable("string"),
			"passport":           nullable("string"),
			"prefix":             nullable("string"),
			"first":              str(),
			"last":               str(),
			"suffix":             nullable("string"),
			"maiden":             nullable("string"),
			"marital":            nullable("string"),
			"race":               nullable("string"),
			"ethnicity":          nullable("string"),
			"gender":             str(),
			"birthplace":         nullable("string"),
			"address":            nullable("string"),
			"city":               nullable("string"),
			"state":              nullable("string"),
			"county":             nullable("string"),
			"fips":               nullable("string"),
			"zip":                nullable("string"),
			"lat":                nullable("number"),
			"lon":                nullable("number"),
			"healthcareExpenses": nullable("number"),
			"healthcareCoverage": nullable("number"),
			"income":             nullable("number"),
		}),
		"EHRSummary": object(nil, map[string]interface{}{
			"conditionsCount":     map[string]interface{}{"type": "integer"},
			"activeConditions":    arrayOf(str()),
			"medicationsCount":    map[string]interface{}{"type": "integer"},
			"activeMedications":   arrayOf(str()),
			"allergiesCount":      map[string]interface{}{"type": "integer"},
			"allergies":           arrayOf(str()),
			"encountersCount":     map[string]interface{}{"type": "integer"},
			"proceduresCount":     map[string]interface{}{"type": "integer"},
			"immunizationsCount":  map[string]interface{}{"type": "integer"},
			"observationsCount":   map[string]interface{}{"type": "integer"},
			"careplansCount":      map[string]interface{}{"type": "integer"},
			"activeCareplanCount": map[string]interface{}{"type": "integer"},
		}),
		"PatientDetail": object([]string{"patient", "summary"}, map[string]interface{}{
			"patient":            ref("Patient"),
			"summary":            ref("EHRSummary"),
			"conditions":         arrayOf(map[string]interface{}{"type": "object"}),
			"medications":        arrayOf(map[string]interface{}{"type": "object"}),
			"allergies":          arrayOf(map[string]interface{}{"type": "object"}),
			"procedures":         arrayOf(map[string]interface{}{"type": "object"}),
			"careplans":          arrayOf(map[string]interface{}{"type": "object"}),
			"recentObservations": arrayOf(map[string]interface{}{"type": "object"}),
			"encounters":         arrayOf(map[string]interface{}{"type": "object"}),
			"immunizations":      arrayOf(map[string]interface{}{"type": "object"}),
		}),
		"ConversationSummary": object([]string{"id", "patientId", "patientName", "taskType", "createdAt", "updatedAt"}, map[string]interface{}{
			"id":          formatted("uuid"),
			"patientId":   formatted("uuid"),
			"patientName": str(),
			"taskType":    ref("TaskType"),
			"createdAt":   formatted("date-time"),
			"updatedAt":   formatted("date-time"),
			"metadata":    nullable("string"),
		}),
		"CreatedConversation": object([]string{"id", "patientId", "taskType", "patientName", "createdAt"}, map[string]interface{}{
			"id":          formatted("uuid"),
			"patientId":   formatted("uuid"),
			"taskType":    ref("TaskType"),
			"patientName": str(),
			"createdAt":   formatted("date-time"),
		}),
		"ConversationWithMessages": object([]string{"id", "patientId", "taskType", "messages"}, map[string]interface{}{
			"id":          formatted("uuid"),
			"patientId":   formatted("uuid"),
			"patientName": str(),
			"taskType":    ref("TaskType"),
			"createdAt":   formatted("date-time"),
			"updatedAt":   formatted("date-time"),
			"metadata":    nullable("string"),
			"messages":    arrayOf(ref("Message")),
		}),
		"Message": object([]string{"id", "role", "content", "createdAt"}, map[string]interface{}{
			"id":        formatted("uuid"),
			"role":      ref("Role"),
			"content":   str(),
			"createdAt": formatted("date-time"),
		}),
		"CreateConversationRequest": object([]string{"patientId", "taskType"}, map[string]interface{}{
			"patientId": formatted("uuid"),
			"taskType":  ref("TaskType"),
			"metadata":  map[string]interface{}{"type": "string", "description": "Opaque client metadata, stored as is"},
		}),
		"SendMessageRequest": object([]string{"content"}, map[string]interface{}{
			"content": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 4096},
		}),
		"AgentReply": object([]string{"conversationId", "role", "content"}, map[string]interface{}{
			"conversationId": formatted("uuid"),
			"role":           map[string]interface{}{"type": "string", "const": "assistant"},
			"content":        str(),
		}),
		"Pagination": object([]string{"page", "limit", "total", "totalPages"}, map[string]interface{}{
			"page":       map[string]interface{}{"type": "integer"},
			"limit":      map[string]interface{}{"type": "integer"},
			"total":      map[string]interface{}{"type": "integer"},
			"totalPages": map[string]interface{}{"type": "integer"},
		}),
		"Error": object([]string{"error"}, map[string]interface{}{
			"error": str(),
			"details": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": arrayOf(str()),
			},
		}),
	}
}

// RegisterRoutes mounts the document and the reference page on the root
// router; both are public.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	spec := g.GenerateSpec()
	e.GET(SpecPath, func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
		return c.JSON(http.StatusOK, spec)
	})
	e.GET(DocsPath, func(c echo.Context) error {
		return c.HTML(http.StatusOK, scalarHTML)
	})
}

const scalarHTML = `<!doctype html>
<html>
  <head>
    <title>Virtual Clinic API Reference</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>.scalar-app footer { display: none; }</style>
  </head>
  <body>
    <script
      id="api-reference"
      data-url="` + SpecPath + `"
      data-configuration='{"telemetry":false,"showDeveloperTools":"never","agent":{"disabled":true}}'></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
  </body>
</html>
`
