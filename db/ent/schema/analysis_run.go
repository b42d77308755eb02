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

// AnalysisRun records one analysis of an input note and its outcome.
type AnalysisRun struct{ ent.Schema }

func (AnalysisRun) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "analysis_runs"},
	}
}

func (AnalysisRun) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		// explicit FK
		field.UUID("order_id", uuid.UUID{}).Optional().Nillable(),
		field.String("source").Default(""),
		field.String("format").NotEmpty().
			Validate(utils.EnumValidator(constants.SnippetFormats...)),
		field.Text("input_text"),
		field.String("started_at"),
		field.String("finished_at").Optional().Nillable(),
		field.String("status").
			Validate(utils.EnumValidator(constants.RunStatusStrings()...)),
		field.String("error_message").Optional().Nillable(),
		field.Text("result_json").Optional().Nillable(),
	}
}

func (AnalysisRun) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("order", Order.Type).
			Ref("runs").
			Field("order_id").
			Unique(),
	}
}

func (AnalysisRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
	}
}
