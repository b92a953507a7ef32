/*
 * Copyright 2025. Mantis Author All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package sqlbuild

import (
	"fmt"
	"strings"
)

// Preview renders a dialect-neutral sketch of an op sequence for logs
// and tests. It is not SQL and is never sent to a database.
func Preview(ops []Op) string {
	var sb strings.Builder
	previewInto(&sb, ops, 0)
	return sb.String()
}

func previewInto(sb *strings.Builder, ops []Op, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, op := range ops {
		switch v := op.(type) {
		case *AddCTE:
			fmt.Fprintf(sb, "%sWITH %s AS (\n", indent, v.Name)
			previewInto(sb, v.Ops, depth+1)
			fmt.Fprintf(sb, "%s)\n", indent)
		case *From:
			fmt.Fprintf(sb, "%sFROM %s\n", indent, sourceName(v.Table, v.Alias))
		case *Join:
			fmt.Fprintf(sb, "%s%s JOIN %s ON %s = %s\n",
				indent, v.Type, sourceName(v.Table, v.Alias), v.Left, v.Right)
		case *Where:
			fmt.Fprintf(sb, "%sWHERE %s %s %v\n", indent, v.Column, v.Op, v.Value)
		case *GroupBy:
			cols := make([]string, len(v.Columns))
			for i, c := range v.Columns {
				cols[i] = c.String()
			}
			fmt.Fprintf(sb, "%sGROUP BY %s\n", indent, strings.Join(cols, ", "))
		case *Select:
			items := make([]string, len(v.Items))
			for i, item := range v.Items {
				items[i] = previewProjection(item)
			}
			fmt.Fprintf(sb, "%sSELECT %s\n", indent, strings.Join(items, ", "))
		case *OrderBy:
			keys := make([]string, len(v.Keys))
			for i, k := range v.Keys {
				if k.Desc {
					keys[i] = k.Column + " DESC"
				} else {
					keys[i] = k.Column
				}
			}
			fmt.Fprintf(sb, "%sORDER BY %s\n", indent, strings.Join(keys, ", "))
		case *Limit:
			fmt.Fprintf(sb, "%sLIMIT %d OFFSET %d\n", indent, v.Count, v.Offset)
		}
	}
}

func sourceName(table, alias string) string {
	if alias == "" || alias == table {
		return table
	}
	return table + " " + alias
}

func previewProjection(p Projection) string {
	switch p.Kind {
	case ProjectAggregate:
		return withAlias(fmt.Sprintf("%s(%s)", p.Aggregate, p.Column), p.Alias)
	case ProjectWindow:
		return withAlias(fmt.Sprintf("%s(%s) OVER (...)", p.Aggregate, p.Column), p.Alias)
	case ProjectExpression:
		return withAlias(p.Expression, p.Alias)
	default:
		return withAlias(p.Column.String(), p.Alias)
	}
}

func withAlias(expr, alias string) string {
	if alias == "" {
		return expr
	}
	return expr + " AS " + alias
}
