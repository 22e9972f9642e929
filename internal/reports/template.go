package reports

const reportTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Informe {{.CycleName}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #374151; margin: 24px; }
  h1 { font-size: 18px; margin-bottom: 2px; }
  .period { color: #6b7280; font-size: 12px; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; font-size: 11px; }
  th { text-align: left; border-bottom: 2px solid #374151; padding: 6px; }
  td { border-bottom: 1px solid #e5e7eb; padding: 6px; }
  td.num { text-align: right; }
  td.final { text-align: right; color: #4caf50; font-weight: 700; }
  td.discount { text-align: right; color: #ef4444; }
  tr.obs td { color: #6b7280; font-size: 9px; font-style: italic; }
  .totals { margin-top: 16px; font-size: 12px; text-align: right; }
  .totals .net { font-size: 14px; font-weight: 700; color: #4caf50; }
</style>
</head>
<body>
<h1>Ciclo: {{.CycleName}}</h1>
<div class="period">{{.StartDate}}{{if .EndDate}} — {{.EndDate}}{{end}} · {{.TripCount}} servicios</div>
<table>
<thead>
<tr><th>#</th><th>Fecha</th><th>Trayecto</th><th>Cliente</th><th>Precio</th><th>Dto.</th><th>Importe</th></tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
  <td>{{.Index}}</td>
  <td>{{.Date}}</td>
  <td>{{.Route}}</td>
  <td>{{if .Client}}{{.Client}}{{else}}-{{end}}</td>
  <td class="num">{{.Price}}</td>
  {{if eq .Discount "-"}}<td class="num">-</td>{{else}}<td class="discount">{{.Discount}}</td>{{end}}
  <td class="final">{{.EffectivePrice}}</td>
</tr>
{{if .Observations}}
<tr class="obs"><td colspan="7">Obs: {{.Observations}}</td></tr>
{{end}}
{{end}}
</tbody>
</table>
<div class="totals">
  <div>Total bruto: {{.GrossTotal}}</div>
  <div>Descuentos: {{.DiscountTotal}}</div>
  <div class="net">Total: {{.NetTotal}}</div>
</div>
</body>
</html>
`
