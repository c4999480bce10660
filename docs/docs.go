// Package docs registers the OpenAPI document served at /docs/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health/": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/db": {
            "get": {
                "tags": ["health"],
                "summary": "Database health",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Database unreachable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/health/cache": {
            "get": {
                "tags": ["health"],
                "summary": "Cache statistics",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/gateway": {
            "get": {
                "tags": ["health"],
                "summary": "Schedule gateway queue and quota",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/recordings/match": {
            "post": {
                "tags": ["recordings"],
                "summary": "Match a recording to a game",
                "description": "Finds the cached home or neutral game closest to the recording start. On a miss the camera's in-season teams are re-scraped once.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/snifferHeader"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.MatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MatchResponse"}},
                    "400": {"description": "Invalid body", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "429": {"description": "Rate limited or quota exceeded", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/sniffers/{snifferID}/cameras": {
            "put": {
                "tags": ["sniffers"],
                "summary": "Replace a sniffer's camera assignments",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "snifferID", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CamerasRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid body", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/teams/{teamID}/mapping": {
            "put": {
                "tags": ["teams"],
                "summary": "Create or replace a team mapping",
                "description": "Recorded season playlists and the permanent live are kept.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/teamID"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.MappingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid body", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/teams/{teamID}/schedule": {
            "get": {
                "tags": ["teams"],
                "summary": "Cached team schedule",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/teamID"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not cached", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/teams/{teamID}/refresh": {
            "post": {
                "tags": ["teams"],
                "summary": "Re-scrape a team's schedule",
                "description": "Runs through the schedule gateway and is charged to the calling sniffer, or to the client address when no sniffer is named.",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/teamID"}, {"$ref": "#/parameters/snifferHeader"}],
                "responses": {
                    "200": {"description": "OK"},
                    "429": {"description": "Rate limited or quota exceeded", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Schedule provider failed", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/teams/{teamID}/permanent-live": {
            "post": {
                "tags": ["teams"],
                "summary": "Ensure the team's permanent live",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/teamID"}],
                "responses": {
                    "200": {"description": "Already present"},
                    "201": {"description": "Created"},
                    "401": {"description": "Sniffer must re-authenticate", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/games/{gameID}/thumbnail": {
            "get": {
                "tags": ["thumbnails"],
                "summary": "Cached game thumbnail",
                "produces": ["image/jpeg"],
                "parameters": [
                    {"in": "path", "name": "gameID", "type": "string", "required": true},
                    {"in": "header", "name": "If-None-Match", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "304": {"description": "Not modified"},
                    "404": {"description": "Not cached", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            },
            "put": {
                "tags": ["thumbnails"],
                "summary": "Store a game thumbnail",
                "consumes": ["image/jpeg"],
                "parameters": [{"in": "path", "name": "gameID", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "Stored"},
                    "413": {"description": "Larger than 2 MB", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/api/v1/reconcile/lives": {
            "post": {
                "tags": ["reconcile"],
                "summary": "Create scheduled lives",
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "team", "type": "string", "description": "Reconcile one team only"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/reconcile/replays": {
            "post": {
                "tags": ["reconcile"],
                "summary": "File replays into season playlists",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "parameters": {
        "teamID": {"in": "path", "name": "teamID", "type": "string", "required": true},
        "snifferHeader": {"in": "header", "name": "X-Sniffer-ID", "type": "string", "description": "Calling sniffer"}
    },
    "definitions": {
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string", "example": "RATE_LIMITED"},
                        "message": {"type": "string"}
                    }
                }
            }
        },
        "handler.MatchRequest": {
            "type": "object",
            "required": ["camera_id", "start_time"],
            "properties": {
                "camera_id": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"}
            }
        },
        "handler.MatchResponse": {
            "type": "object",
            "properties": {
                "matched": {"type": "boolean"},
                "team_id": {"type": "string"},
                "game_id": {"type": "string"},
                "title": {"type": "string"},
                "game_start": {"type": "string", "format": "date-time"},
                "delta_seconds": {"type": "number"},
                "fallback": {"type": "boolean"},
                "refreshed": {"type": "array", "items": {"type": "string"}},
                "out_of_season": {"type": "array", "items": {"type": "string"}},
                "errors": {"type": "array", "items": {"type": "string"}},
                "reason": {"type": "string"}
            }
        },
        "handler.MappingRequest": {
            "type": "object",
            "required": ["channel_id", "sniffer_id"],
            "properties": {
                "channel_id": {"type": "string"},
                "channel_handle": {"type": "string"},
                "sniffer_id": {"type": "string"},
                "privacy": {"type": "integer", "minimum": 0, "maximum": 5},
                "tags": {"type": "array", "maxItems": 10, "items": {"type": "string", "maxLength": 30}}
            }
        },
        "handler.CamerasRequest": {
            "type": "object",
            "properties": {
                "cameras": {"type": "array", "items": {"$ref": "#/definitions/handler.CameraBinding"}}
            }
        },
        "handler.CameraBinding": {
            "type": "object",
            "required": ["camera_id"],
            "properties": {
                "camera_id": {"type": "string"},
                "path": {"type": "string"},
                "team_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sideline API",
	Description:      "Schedule matching, scheduled lives and replay playlists for sniffer-recorded games.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
