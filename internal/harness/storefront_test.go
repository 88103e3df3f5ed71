package harness_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeStorefront serves a minimal build of the dealer web app: the admin
// inventory page behind a hash route and the public mini-app at /p/app.
// Its own /api handlers count hits; with mocks installed they must stay at
// zero.
type fakeStorefront struct {
	*httptest.Server
	apiHits atomic.Int64
}

type storefrontOptions struct {
	// hideImportCSV keeps the confirm button hidden after a file is chosen.
	hideImportCSV bool
}

func newFakeStorefront(t *testing.T, opts storefrontOptions) *fakeStorefront {
	t.Helper()

	fs := &fakeStorefront{}
	admin := adminPage
	if opts.hideImportCSV {
		admin = strings.Replace(admin, "confirm.hidden = false;", "", 1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		fs.apiHits.Add(1)
		http.Error(w, "backend must not be reached", http.StatusTeapot)
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, miniAppPage)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeHTML(w, admin)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

const adminPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Dealer Admin</title></head>
<body>
<main id="app">loading</main>
<script>
async function inventoryView() {
  const me = await fetch('/api/auth/me').then(r => r.json());
  const page = await fetch('/api/inventory?page=1&limit=20').then(r => r.json());
  const app = document.getElementById('app');
  app.innerHTML = '';

  const who = document.createElement('p');
  who.textContent = 'Signed in as ' + me.name;
  app.appendChild(who);

  const count = document.createElement('p');
  count.textContent = page.total + ' vehicles';
  app.appendChild(count);

  const open = document.createElement('button');
  open.textContent = 'Import URL';
  app.appendChild(open);

  const dialog = document.createElement('section');
  dialog.hidden = true;
  const input = document.createElement('input');
  input.type = 'file';
  input.id = 'csv-upload';
  input.accept = '.csv';
  const confirm = document.createElement('button');
  confirm.textContent = 'Import CSV';
  confirm.hidden = true;
  const status = document.createElement('p');
  dialog.append(input, confirm, status);
  app.appendChild(dialog);

  open.addEventListener('click', () => { dialog.hidden = false; });
  input.addEventListener('change', () => {
    if (input.files.length > 0) {
      confirm.hidden = false;
    }
  });
  confirm.addEventListener('click', async () => {
    const text = await input.files[0].text();
    const [header, row] = text.split('\n');
    const cols = header.split(',');
    const vals = row.split(',');
    const item = {};
    cols.forEach((c, i) => { item[c.toLowerCase()] = vals[i]; });
    const saved = await fetch('/api/inventory', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(item),
    }).then(r => r.json());
    status.textContent = 'Imported ' + saved.title;
  });
}

if (location.hash === '#/inventory') {
  inventoryView();
} else {
  document.getElementById('app').textContent = 'dashboard';
}
</script>
</body>
</html>
`

const miniAppPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Mini App</title></head>
<body>
<main id="app">loading</main>
<script>
(async () => {
  const bots = await fetch('/api/public/bots?slug=app').then(r => r.json());
  const inventory = await fetch('/api/inventory?page=1').then(r => r.json());
  const cfg = bots[0].miniAppConfig;
  const app = document.getElementById('app');
  app.innerHTML = '';
  app.style.borderTop = '4px solid ' + cfg.primaryColor;

  const title = document.createElement('h1');
  title.textContent = cfg.title;
  const welcome = document.createElement('p');
  welcome.textContent = cfg.welcomeText;
  app.append(title, welcome);

  const grid = document.createElement('div');
  grid.className = cfg.layout.toLowerCase();
  for (const item of inventory.items) {
    const card = document.createElement('article');
    const name = document.createElement('h2');
    name.textContent = item.title;
    const price = document.createElement('span');
    price.textContent = item.price.amount.toLocaleString('en-US') + ' $';
    const meta = document.createElement('small');
    meta.textContent = item.year + ' / ' + item.mileage + ' km';
    card.append(name, price, meta);
    grid.appendChild(card);
  }
  app.appendChild(grid);
})();
</script>
</body>
</html>
`
