package outbox

const activityRecordedSchema = `{
  "type": "object",
  "title": "ActivityRecorded",
  "properties": {
    "activity_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "scope_type": {"type": "string"},
    "scope_id": {"type": "string"},
    "action": {"type": "string"},
    "author_id": {"type": "string"},
    "author_full_name": {"type": "string"},
    "content": {"type": "object"},
    "inserted_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "tenant_id", "scope_type", "scope_id", "action", "author_id", "inserted_at"],
  "additionalProperties": false
}`
