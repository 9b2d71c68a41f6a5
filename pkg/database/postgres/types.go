package postgres

import "github.com/Masterminds/squirrel"

// QueryBuilder SQL 构建器（基于 squirrel，$n 占位符）
var QueryBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
