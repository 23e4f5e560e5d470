package database

import (
	"fmt"

	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

// The builders below return cypher understood by both Apache AGE and Neo4j.
// Labels and edge types are spliced into the text, so they are validated first.
// Vertices are keyed by their integer id property.

func edgePattern(label string, edgeType string, direction model.Direction) (string, error) {
	switch direction {
	case model.DirectionOut:
		return fmt.Sprintf("(a:%s)-[:%s]->(b:%s)", label, edgeType, label), nil
	case model.DirectionIn:
		return fmt.Sprintf("(a:%s)<-[:%s]-(b:%s)", label, edgeType, label), nil
	case model.DirectionBoth, "":
		return fmt.Sprintf("(a:%s)-[:%s]-(b:%s)", label, edgeType, label), nil
	}
	return "", fmt.Errorf("unsupported direction: %q", direction)
}

func edgeRowsCypher(query model.EdgeQuery) (string, error) {
	err := helper.ValidateIdentifiers(query.Label, query.EdgeType)
	if err != nil {
		return "", err
	}

	pattern, err := edgePattern(query.Label, query.EdgeType, query.Direction)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("MATCH %s RETURN [a.id, b.id]%s", pattern, limitClause(query.RowCap)), nil
}

func traversalCypher(query model.TraversalQuery) (string, error) {
	err := helper.ValidateIdentifiers(query.Label, query.EdgeType)
	if err != nil {
		return "", err
	}
	if query.MaxHops < 1 {
		return "", fmt.Errorf("max hops must be at least 1, got %d", query.MaxHops)
	}

	return fmt.Sprintf(
		"MATCH (root:%s {id: $root}) MATCH (root)-[:%s*1..%d]->(d:%s) RETURN DISTINCT d.id%s",
		query.Label, query.EdgeType, query.MaxHops, query.Label, limitClause(query.RowCap),
	), nil
}

func associationCypher(query model.AssociationQuery) (string, error) {
	err := helper.ValidateIdentifiers(query.DocLabel, query.Label, query.EdgeType)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"MATCH (d:%s)-[:%s]->(l:%s) WHERE l.id IN $ids RETURN DISTINCT d.id%s",
		query.DocLabel, query.EdgeType, query.Label, limitClause(query.RowCap),
	), nil
}

func expandCypher(query model.ExpandQuery) (string, error) {
	err := helper.ValidateIdentifiers(query.Label, query.EdgeType)
	if err != nil {
		return "", err
	}
	if query.Hops < 1 {
		return "", fmt.Errorf("hops must be at least 1, got %d", query.Hops)
	}

	return fmt.Sprintf(
		"MATCH (n:%s) WHERE n.id IN $ids MATCH (n)-[:%s*1..%d]->(m:%s) RETURN DISTINCT m.id%s",
		query.Label, query.EdgeType, query.Hops, query.Label, limitClause(query.RowCap),
	), nil
}

func neighborsCypher(label string, edgeType string, direction model.Direction) (string, error) {
	err := helper.ValidateIdentifiers(label, edgeType)
	if err != nil {
		return "", err
	}

	pattern, err := edgePattern(label, edgeType, direction)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("MATCH %s WHERE a.id = $id RETURN DISTINCT b.id", pattern), nil
}

func upsertVertexCypher(label string) (string, error) {
	err := helper.ValidateIdentifier(label)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("MERGE (n:%s {id: $id}) SET n += $props RETURN n.id", label), nil
}

func deleteVertexCypher(label string) (string, error) {
	err := helper.ValidateIdentifier(label)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("MATCH (n:%s {id: $id}) DETACH DELETE n RETURN n", label), nil
}

func mergeEdgeCypher(fromLabel string, edgeType string, toLabel string) (string, error) {
	err := helper.ValidateIdentifiers(fromLabel, edgeType, toLabel)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"MATCH (n:%s {id: $src_id}) MATCH (m:%s {id: $tgt_id}) MERGE (n)-[:%s]->(m) RETURN m.id",
		fromLabel, toLabel, edgeType,
	), nil
}

// limitClause renders a LIMIT for positive row caps. Other caps disable the limit.
func limitClause(rowCap int) string {
	if rowCap <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", rowCap)
}
