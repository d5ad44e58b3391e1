package normalize

// Rutas candidatas por campo lógico. Gana el primer candidato no vacío: los
// bloques anidados de frete/envío van antes que los alias de primer nivel. Este
// orden se mantiene tal cual porque el upstream llena varios alias de forma
// inconsistente.

type path []string

var idPaths = []path{
	{"id"},
	{"order_id"},
	{"pedido_id"},
	{"id_pedido"},
}

var numberPaths = []path{
	{"numero"},
	{"order_number"},
	{"identificacao"},
	{"number"},
	{"codigo"},
}

var createdPaths = []path{
	{"data"},
	{"created_at"},
	{"criado_em"},
	{"data_pedido"},
	{"data_criacao"},
	{"createdAt"},
	{"date"},
}

var updatedPaths = []path{
	{"updated_at"},
	{"atualizado_em"},
	{"data_atualizacao"},
	{"updatedAt"},
}

var statusPaths = []path{
	{"status", "nome"},
	{"status", "name"},
	{"status", "descricao"},
	{"status"},
	{"situacao", "nome"},
	{"situacao"},
}

var trackingPaths = []path{
	{"frete", "rastreio"},
	{"frete", "codigo_rastreio"},
	{"frete", "tracking_code"},
	{"frete", "tracking"},
	{"frete", "codigo"},
	{"shipping", "tracking_code"},
	{"shipping", "tracking"},
	{"envio", "rastreio"},
	{"rastreio"},
	{"codigo_rastreio"},
	{"tracking_code"},
	{"trackingCode"},
	{"tracking"},
}

var servicePaths = []path{
	{"frete", "servico"},
	{"frete", "nome"},
	{"frete", "metodo"},
	{"frete", "tipo"},
	{"shipping", "service"},
	{"shipping", "method"},
	{"envio", "servico"},
	{"servico_frete"},
	{"forma_envio"},
	{"shipping_service"},
	{"service"},
}

type moneyPath struct {
	path path
	// minor: el valor ya está en centavos (forma canónica)
	minor bool
}

var shippingCostPaths = []moneyPath{
	{path: path{"frete", "valor"}},
	{path: path{"frete", "preco"}},
	{path: path{"frete", "custo"}},
	{path: path{"frete", "valor_frete"}},
	{path: path{"shipping", "cost"}},
	{path: path{"shipping", "price"}},
	{path: path{"envio", "valor"}},
	{path: path{"valor_frete"}},
	{path: path{"frete_valor"}},
	{path: path{"frete"}},
	{path: path{"shipping_cost"}},
	{path: path{"shippingCost"}, minor: true},
}
