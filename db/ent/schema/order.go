package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/db/ent/schema/utils"
)

// Order mirrors the orders table. Dates are YYYY-MM-DD strings and timestamps
// fixed-width RFC 3339 strings, so both dialects sort them the same way.
type Order struct{ ent.Schema }

func (Order) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "orders"},
	}
}

func (Order) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("order_no").Default("").MaxLen(32),
		field.Int("fee").Optional().Nillable().Range(50, 10000),
		field.String("start_date"),
		field.String("end_date"),
		field.String("contact").Default(""),
		field.String("status").
			Validate(utils.EnumValidator(constants.OrderStatusStrings()...)),
		field.String("remarks").Default(""),
		field.Text("source_text").Default(""),
		field.String("created_at").Immutable(),
		field.String("updated_at"),
	}
}

func (Order) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("runs", AnalysisRun.Type),
	}
}

func (Order) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "end_date"),
		index.Fields("order_no"),
	}
}
