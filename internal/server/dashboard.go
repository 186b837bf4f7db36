package server

import "net/http"

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>feescope</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  :root {
    --bg: #0c0a09; --surface: #1c1917; --surface-hover: #292524;
    --border: rgba(249,115,22,0.12); --border-strong: rgba(249,115,22,0.25);
    --text: #fafaf9; --text-dim: #a8a29e; --text-muted: #57534e;
    --orange: #f97316; --orange-light: #fb923c;
    --orange-dim: rgba(249,115,22,0.15); --orange-dimmer: rgba(249,115,22,0.06);
    --green: #22c55e; --red: #ef4444;
  }
  body {
    font-family: -apple-system, 'SF Pro Display', 'Segoe UI', system-ui, sans-serif;
    background: var(--bg); color: var(--text);
    min-height: 100vh; padding: 40px 24px;
  }
  .container { max-width: 880px; margin: 0 auto; }

  .header {
    display: flex; align-items: center; gap: 16px;
    margin-bottom: 40px; padding-bottom: 24px;
    border-bottom: 1px solid var(--border);
  }
  .header-text h1 {
    font-size: 26px; font-weight: 800; letter-spacing: -0.5px;
    background: linear-gradient(135deg, var(--orange-light) 0%, var(--orange) 100%);
    -webkit-background-clip: text; -webkit-text-fill-color: transparent;
  }
  .header-text .subtitle {
    font-size: 12px; color: var(--text-muted); margin-top: 2px;
    font-family: 'SF Mono', 'Menlo', monospace; letter-spacing: 0.5px;
  }
  .header .spacer { flex: 1; }
  .status-pill {
    display: flex; align-items: center; gap: 8px;
    font-size: 12px; font-weight: 600; color: var(--green);
    background: rgba(34,197,94,0.08); padding: 6px 14px;
    border-radius: 20px; border: 1px solid rgba(34,197,94,0.15);
  }
  .status-pill.offline { color: var(--red); background: rgba(239,68,68,0.08); border-color: rgba(239,68,68,0.15); }
  .status-pill .dot { width: 8px; height: 8px; border-radius: 50%; background: currentColor; }

  .stats-grid {
    display: grid; grid-template-columns: repeat(3, 1fr);
    gap: 16px; margin-bottom: 16px;
  }
  .card {
    background: var(--surface); border: 1px solid var(--border);
    border-radius: 20px; padding: 24px; margin-bottom: 16px;
  }
  .stats-grid .card { margin-bottom: 0; }
  .label {
    font-size: 11px; font-weight: 600; letter-spacing: 1.5px; text-transform: uppercase;
    color: var(--text-muted); margin-bottom: 12px;
  }
  .value {
    font-size: 28px; font-weight: 800; font-variant-numeric: tabular-nums;
    letter-spacing: -1px; line-height: 1;
  }
  .value.orange { color: var(--orange); }
  .sub { font-size: 12px; color: var(--text-dim); margin-top: 6px; font-family: 'SF Mono', 'Menlo', monospace; }

  .controls { display: flex; flex-wrap: wrap; gap: 16px; align-items: center; margin-bottom: 16px; font-size: 13px; color: var(--text-dim); }
  .controls select {
    background: var(--surface-hover); color: var(--text); border: 1px solid var(--border-strong);
    border-radius: 8px; padding: 4px 8px; font-family: 'SF Mono', 'Menlo', monospace;
  }
  canvas { width: 100%; height: 320px; background: var(--bg); border-radius: 12px; border: 1px solid var(--border); }
  .legend { display: flex; gap: 24px; margin-top: 12px; font-size: 13px; font-family: 'SF Mono', 'Menlo', monospace; color: var(--text-dim); }
  .legend b { color: var(--orange); }
  .error { color: var(--red); font-size: 12px; margin-top: 8px; min-height: 16px; }

  table { width: 100%; border-collapse: collapse; }
  th {
    font-size: 10px; font-weight: 600; letter-spacing: 1.5px; text-transform: uppercase;
    color: var(--text-muted); text-align: left; padding: 10px 0;
    border-bottom: 1px solid var(--border);
  }
  td {
    font-size: 13px; color: var(--text-dim); padding: 12px 0;
    border-bottom: 1px solid var(--border);
    font-family: 'SF Mono', 'Menlo', monospace;
  }
  tr:last-child td { border-bottom: none; }
  .badge {
    display: inline-block; font-size: 10px; font-weight: 600; padding: 3px 10px;
    border-radius: 20px; background: var(--orange-dim); color: var(--orange);
  }

  @media (max-width: 640px) {
    .stats-grid { grid-template-columns: 1fr; }
    body { padding: 24px 16px; }
  }
</style>
</head>
<body>
<div class="container">

  <div class="header">
    <div class="header-text">
      <h1>feescope</h1>
      <div class="subtitle">block fee console</div>
    </div>
    <div class="spacer"></div>
    <div class="status-pill" id="statusPill"><span class="dot"></span><span id="statusText">Online</span></div>
  </div>

  <div class="stats-grid">
    <div class="card">
      <div class="label">Stored Blocks</div>
      <div class="value orange" id="stored">--</div>
      <div class="sub" id="latest">latest --</div>
    </div>
    <div class="card">
      <div class="label">Chain Tip</div>
      <div class="value" id="tip">--</div>
      <div class="sub" id="headers">-- headers</div>
    </div>
    <div class="card">
      <div class="label">Uptime</div>
      <div class="value" id="uptime">--</div>
      <div class="sub" id="nodeId"></div>
    </div>
  </div>

  <div class="card">
    <div class="label">Block Fees</div>
    <div class="controls">
      <label>Block <select id="height"></select></label>
      <label><input type="radio" name="mode" value="none" checked> none</label>
      <label><input type="radio" name="mode" value="group"> group runs</label>
      <label><input type="radio" name="mode" value="groupall"> group all</label>
      <label><input type="radio" name="mode" value="spb"> sort by rate</label>
      <label><input type="checkbox" id="clip"> clip</label>
    </div>
    <canvas id="chart" width="832" height="320"></canvas>
    <div class="legend">
      <span>max <b id="maxRate">--</b></span>
      <span>avg <b id="avgRate">--</b></span>
      <span>min <b id="minRate">--</b></span>
      <span>fees <b id="totalFee">--</b></span>
      <span id="blockInfo"></span>
    </div>
    <div class="error" id="chartError"></div>
  </div>

  <div class="card">
    <div class="label">Wallets</div>
    <table>
      <thead><tr><th>Name</th><th>Addresses</th><th></th></tr></thead>
      <tbody id="walletsBody">
        <tr><td colspan="3">Loading...</td></tr>
      </tbody>
    </table>
  </div>

</div>

<script>
const $ = id => document.getElementById(id);

async function fetchJSON(url) {
  try {
    const res = await fetch(url);
    if (!res.ok) throw new Error(res.status);
    return await res.json();
  } catch { return null; }
}

function mode() {
  return document.querySelector('input[name=mode]:checked').value;
}

function plot(view) {
  const c = $('chart'), ctx = c.getContext('2d');
  ctx.clearRect(0, 0, c.width, c.height);
  const pts = view.points || [];
  if (pts.length === 0) return;
  const maxX = pts[pts.length - 1][0] || 1;
  const maxY = view.ceiling || 100;
  const x = v => v / maxX * (c.width - 2) + 1;
  const y = v => c.height - 1 - Math.min(v, maxY) / maxY * (c.height - 2);

  ctx.strokeStyle = 'rgba(249,115,22,0.25)';
  ctx.beginPath();
  ctx.moveTo(0, y(view.stats.avg_rate));
  ctx.lineTo(c.width, y(view.stats.avg_rate));
  ctx.stroke();

  ctx.strokeStyle = '#f97316';
  ctx.lineWidth = 2;
  ctx.beginPath();
  let prevX = 0;
  pts.forEach((p, i) => {
    if (i === 0) ctx.moveTo(x(prevX), y(p[1]));
    else ctx.lineTo(x(prevX), y(p[1]));
    ctx.lineTo(x(p[0]), y(p[1]));
    prevX = p[0];
  });
  ctx.stroke();
}

// A failed refresh leaves the previous chart on screen.
async function refreshChart() {
  const h = $('height').value;
  if (!h) return;
  const res = await fetch('/api/fees/chart?height=' + h + '&mode=' + mode() + '&clip=' + $('clip').checked);
  const body = await res.json().catch(() => null);
  if (!res.ok || !body) {
    $('chartError').textContent = body && body.error ? body.error : 'chart unavailable';
    return;
  }
  $('chartError').textContent = '';
  plot(body);
  $('maxRate').textContent = body.display.max;
  $('avgRate').textContent = body.display.avg;
  $('minRate').textContent = body.display.min;
  $('totalFee').textContent = body.total_fee || '--';
  let info = body.size_text + ' / ' + body.record_count + ' records';
  if (body.mined_by) info += ' / ' + body.mined_by;
  if (body.header) info += ' / ' + body.header.time;
  $('blockInfo').textContent = info;
}

async function loadHeights() {
  const list = await fetchJSON('/api/fees/heights?limit=144');
  if (!list) return;
  const sel = $('height'), cur = sel.value;
  sel.innerHTML = list.map(b => '<option value="' + b.height + '">' + b.height + '</option>').join('');
  if (cur && list.some(b => String(b.height) === cur)) sel.value = cur;
}

async function loadWallets() {
  const books = await fetchJSON('/api/wallets');
  const body = $('walletsBody');
  if (!books) return;
  if (books.length === 0) {
    body.innerHTML = '<tr><td colspan="3">No wallets</td></tr>';
    return;
  }
  body.innerHTML = books.map(b =>
    '<tr><td>' + b.name + '</td><td>' + b.addresses + '</td><td>' +
    (b.selected ? '<span class="badge">selected</span>' : '') + '</td></tr>'
  ).join('');
}

async function poll() {
  const status = await fetchJSON('/status');
  if (!status) {
    $('statusPill').className = 'status-pill offline';
    $('statusText').textContent = 'Offline';
    return;
  }
  $('statusPill').className = 'status-pill';
  $('statusText').textContent = 'Online';
  $('stored').textContent = status.fees.stored;
  $('latest').textContent = 'latest ' + (status.fees.latest_height ?? '--');
  const hs = status.headers || {};
  $('tip').textContent = hs.chain_tip >= 0 ? hs.chain_tip : '--';
  $('headers').textContent = (hs.total_headers || 0) + ' headers';
  $('uptime').textContent = status.uptime;
  $('nodeId').textContent = 'node ' + (status.node_id || '').substring(0, 16);

  const before = $('height').value;
  await loadHeights();
  if ($('height').value !== before) refreshChart();
}

$('height').addEventListener('change', refreshChart);
$('clip').addEventListener('change', refreshChart);
document.querySelectorAll('input[name=mode]').forEach(el => el.addEventListener('change', refreshChart));

poll().then(refreshChart);
loadWallets();
setInterval(poll, 10000);
</script>
</body>
</html>`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}
