package workflow

// fieldAliases maps the field names used in workflow documents to the
// record keys produced by message extraction. Names without an alias
// look up the record directly, so conditions can address any attribute
// an earlier node added.
var fieldAliases = map[string]string{
	"sender":    "from",
	"recipient": "to",
	"subject":   "subject",
	"body":      "body",
	"size":      "size",
}

// fieldValue resolves a condition field name against a record. Missing
// keys resolve to the empty string.
func fieldValue(rec Record, field string) string {
	key, ok := fieldAliases[field]
	if !ok {
		key = field
	}
	return rec.String(key)
}
