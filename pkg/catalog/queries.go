package catalog

import (
	"strings"

	"github.com/axelarscope/dashboard/pkg/warehouse"
)

const (
	QueryChainStats        = "chain_stats"
	QuerySquidKPI          = "squid_kpi"
	QuerySquidTimeSeries   = "squid_timeseries"
	QuerySquidSources      = "squid_source_chains"
	QuerySquidDestinations = "squid_destination_chains"
	QuerySquidSymbols      = "squid_source_symbols"
)

// builtinSpecs is the fixed catalog, in display order.
func builtinSpecs() []*QuerySpec {
	return []*QuerySpec{
		{
			ID:    QueryChainStats,
			Title: "Axelar chain statistics",
			Uses:  UsesDates,
			Columns: []warehouse.Column{
				{Name: "transactions", Type: "UInt64"},
				{Name: "unique_addresses", Type: "UInt64"},
				{Name: "total_fees", Type: "Float64"},
				{Name: "avg_block_time", Type: "Float64"},
			},
			template: QueryChainStats,
		},
		{
			ID:    QuerySquidKPI,
			Title: "Squid bridge totals",
			Uses:  UsesDates | UsesFilters,
			Columns: []warehouse.Column{
				{Name: "transfers", Type: "UInt64"},
				{Name: "users", Type: "UInt64"},
				{Name: "volume_usd", Type: "Float64"},
			},
			template: QuerySquidKPI,
		},
		{
			ID:    QuerySquidTimeSeries,
			Title: "Squid bridge activity over time",
			Uses:  UsesDates | UsesBucket | UsesFilters,
			Columns: []warehouse.Column{
				{Name: "period", Type: "DateTime"},
				{Name: "transfers", Type: "UInt64"},
				{Name: "users", Type: "UInt64"},
				{Name: "volume_usd", Type: "Float64"},
			},
			template: QuerySquidTimeSeries,
		},
		{
			ID:    QuerySquidSources,
			Title: "Squid bridge source chains",
			Uses:  UsesDates | UsesFilters,
			Columns: []warehouse.Column{
				{Name: "source_chain", Type: "String"},
				{Name: "transfers", Type: "UInt64"},
				{Name: "users", Type: "UInt64"},
				{Name: "volume_usd", Type: "Float64"},
			},
			template: QuerySquidSources,
		},
		{
			ID:    QuerySquidDestinations,
			Title: "Squid bridge destination chains",
			Uses:  UsesDates | UsesFilters,
			Columns: []warehouse.Column{
				{Name: "destination_chain", Type: "String"},
				{Name: "transfers", Type: "UInt64"},
				{Name: "users", Type: "UInt64"},
				{Name: "volume_usd", Type: "Float64"},
			},
			template: QuerySquidDestinations,
		},
		{
			ID:    QuerySquidSymbols,
			Title: "Squid bridge symbols per source chain",
			Uses:  UsesDates | UsesFilters,
			Columns: []warehouse.Column{
				{Name: "source_chain", Type: "String"},
				{Name: "symbol", Type: "String"},
				{Name: "volume_usd", Type: "Float64"},
				{Name: "transfers", Type: "UInt64"},
			},
			template: QuerySquidSymbols,
		},
	}
}

// jsonString renders a String extraction from the raw event payload.
func jsonString(path ...string) string {
	return "JSONExtractString(data, " + quotePath(path) + ")"
}

// jsonNumber renders a numeric extraction that yields NULL for missing, array, object or non-numeric values.
// Numbers stored as JSON strings are accepted.
func jsonNumber(path ...string) string {
	return "toFloat64OrNull(trim(BOTH '\"' FROM JSONExtractRaw(data, " + quotePath(path) + ")))"
}

func quotePath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ", ")
}

const queryTemplates = `
{{define "squid_service"}}squid_service AS (
    SELECT
        created_at,
        lower({{json "send" "original_source_chain"}}) AS source_chain,
        lower({{json "send" "original_destination_chain"}}) AS destination_chain,
        recipient_address AS user_address,
        {{num "send" "amount"}} AS amount,
        {{num "send" "amount"}} * {{num "link" "price"}} AS amount_usd,
        {{num "send" "fee_value"}} AS fee,
        id,
        'Token Transfers' AS service,
        {{json "link" "asset"}} AS raw_asset
    FROM axelscan.fact_transfers
    WHERE status = 'executed'
      AND simplified_status = 'received'
      AND toDate(created_at) BETWEEN {{quote .Start}} AND {{quote .End}}
      AND {{contains "sender_address" .Filters}}

    UNION ALL

    SELECT
        created_at,
        lower({{json "call" "chain"}}) AS source_chain,
        lower({{json "call" "returnValues" "destinationChain"}}) AS destination_chain,
        {{json "call" "transaction" "from"}} AS user_address,
        {{num "amount"}} AS amount,
        {{num "value"}} AS amount_usd,
        coalesce(
            {{num "gas" "gas_used_amount"}} * {{num "gas_price_rate" "source_token" "token_price" "usd"}},
            {{num "fees" "express_fee_usd"}}
        ) AS fee,
        id,
        'GMP' AS service,
        {{json "symbol"}} AS raw_asset
    FROM axelscan.fact_gmp
    WHERE status = 'executed'
      AND simplified_status = 'received'
      AND toDate(created_at) BETWEEN {{quote .Start}} AND {{quote .End}}
      AND {{contains (json "approved" "returnValues" "contractAddress") .Filters}}
){{end}}

{{define "chain_stats"}}WITH
tx AS (
    SELECT
        count(tx_id) AS transactions,
        uniqExact(tx_from) AS unique_addresses,
        round(ifNull(sum(fee / 1e6), 0)) AS total_fees
    FROM core.fact_transactions
    WHERE toDate(block_timestamp) BETWEEN {{quote .Start}} AND {{quote .End}}
),
blocks AS (
    SELECT round(ifNull(avg(block_time), 0), 2) AS avg_block_time
    FROM (
        SELECT dateDiff('second', block_timestamp,
            leadInFrame(toNullable(block_timestamp)) OVER (ORDER BY block_id ROWS BETWEEN CURRENT ROW AND 1 FOLLOWING)
        ) AS block_time
        FROM core.fact_blocks
        WHERE toDate(block_timestamp) BETWEEN {{quote .Start}} AND {{quote .End}}
    )
    WHERE block_time IS NOT NULL
)
SELECT transactions, unique_addresses, total_fees, avg_block_time
FROM tx CROSS JOIN blocks{{end}}

{{define "squid_kpi"}}WITH {{template "squid_service" .}}
SELECT
    uniqExact(id) AS transfers,
    uniqExact(user_address) AS users,
    round(ifNull(sum(amount_usd), 0)) AS volume_usd
FROM squid_service{{end}}

{{define "squid_timeseries"}}WITH {{template "squid_service" .}}
SELECT
    toDateTime({{.Trunc}}(created_at), 'UTC') AS period,
    uniqExact(id) AS transfers,
    uniqExact(user_address) AS users,
    round(ifNull(sum(amount_usd), 0)) AS volume_usd
FROM squid_service
GROUP BY period
ORDER BY period{{end}}

{{define "squid_source_chains"}}WITH {{template "squid_service" .}}
SELECT
    source_chain,
    uniqExact(id) AS transfers,
    uniqExact(user_address) AS users,
    round(ifNull(sum(amount_usd), 0)) AS volume_usd
FROM squid_service
GROUP BY source_chain
ORDER BY transfers DESC, source_chain{{end}}

{{define "squid_destination_chains"}}WITH {{template "squid_service" .}}
SELECT
    destination_chain,
    uniqExact(id) AS transfers,
    uniqExact(user_address) AS users,
    round(ifNull(sum(amount_usd), 0)) AS volume_usd
FROM squid_service
GROUP BY destination_chain
ORDER BY transfers DESC, destination_chain{{end}}

{{define "squid_source_symbols"}}WITH {{template "squid_service" .}}
SELECT
    source_chain,
    {{symbol "raw_asset"}} AS symbol,
    round(ifNull(sum(amount_usd), 0)) AS volume_usd,
    uniqExact(id) AS transfers
FROM squid_service
GROUP BY source_chain, symbol
ORDER BY transfers DESC, source_chain, symbol{{end}}
`
